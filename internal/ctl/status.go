package ctl

import (
	"fmt"
	"sort"
)

func showStatus(cfg *Config) error {
	ctx, cancel := cfg.requestCtx()
	defer cancel()
	st, err := NewClient(cfg.ServerURL).Status(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("uptime %ds  mounted %d  cache %d  events %d\n",
		st.UptimeSeconds, st.Mounted, st.CacheEntries, st.EventsTotal)

	if len(st.States) > 0 {
		names := make([]string, 0, len(st.States))
		for s := range st.States {
			names = append(names, s)
		}
		sort.Strings(names)
		fmt.Print("states:")
		for _, s := range names {
			fmt.Printf(" %s=%d", s, st.States[s])
		}
		fmt.Println()
	}

	for _, f := range st.Families {
		mark := " "
		switch {
		case f.Loaded:
			mark = "*"
		case f.InFlight:
			mark = "~"
		}
		line := fmt.Sprintf("%s %s", mark, f.Family)
		if f.GateFired {
			line += " (gate fired)"
		}
		fmt.Println(line)
	}
	return nil
}

func listAssets(cfg *Config) error {
	ctx, cancel := cfg.requestCtx()
	defer cancel()
	resp, err := NewClient(cfg.ServerURL).Assets(ctx)
	if err != nil {
		return err
	}
	for _, a := range resp.Assets {
		mounted := "-"
		if a.Mounted {
			mounted = "mounted"
		}
		d := a.Descriptor
		fmt.Printf("%-24s %-12s %-7s %-11s %s\n", d.ID, d.Family, d.Kind, a.State, mounted)
	}
	return nil
}
