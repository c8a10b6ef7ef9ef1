package ctl

import (
	"fmt"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

func loadFamily(cfg *Config, family string) error {
	ctx, cancel := cfg.requestCtx()
	defer cancel()
	resp, err := NewClient(cfg.ServerURL).LoadFamily(ctx, family)
	if err != nil {
		return err
	}
	if !resp.Loaded {
		return fmt.Errorf("family %s did not load", family)
	}
	fmt.Printf("%s loaded\n", resp.Family)
	return nil
}

// prefetchFamilies loads families one request at a time so the bar tracks
// real completions. No names means the whole catalog.
func prefetchFamilies(cfg *Config, families []string) error {
	c := NewClient(cfg.ServerURL)
	if len(families) == 0 {
		ctx, cancel := cfg.requestCtx()
		st, err := c.Status(ctx)
		cancel()
		if err != nil {
			return err
		}
		for _, f := range st.Families {
			families = append(families, f.Family)
		}
	}
	if len(families) == 0 {
		info("nothing to prefetch")
		return nil
	}

	bar := progressbar.Default(int64(len(families)), "prefetch")
	var failed []string
	for _, fam := range families {
		ctx, cancel := cfg.requestCtx()
		resp, err := c.LoadFamily(ctx, fam)
		cancel()
		switch {
		case err != nil:
			failed = append(failed, fam)
			errl("prefetch %s: %v", fam, err)
		case !resp.Loaded:
			failed = append(failed, fam)
			warn("prefetch %s: family did not load", fam)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if len(failed) > 0 {
		return fmt.Errorf("prefetch finished with failures: %s", strings.Join(failed, ", "))
	}
	fmt.Printf("prefetched %d families\n", len(families))
	return nil
}

func showState(cfg *Config, id string, wait []string, timeout time.Duration) error {
	// The request budget must outlive a server-side wait.
	budget := cfg.Timeout
	if timeout > 0 && budget > 0 && timeout+2*time.Second > budget {
		budget = timeout + 2*time.Second
	}
	ctx, cancel := ctxWithBudget(budget)
	defer cancel()

	resp, err := NewClient(cfg.ServerURL).State(ctx, id, wait, timeout)
	if err != nil {
		return err
	}
	rec := resp.Record
	if resp.TimedOut {
		fmt.Printf("%s %s (wait timed out)\n", rec.ResourceID, rec.State)
	} else {
		fmt.Printf("%s %s\n", rec.ResourceID, rec.State)
	}
	if rec.URL != "" {
		fmt.Printf("  url: %s\n", rec.URL)
	}
	if rec.Reason != "" {
		fmt.Printf("  reason: %s\n", rec.Reason)
	}
	for _, tr := range rec.History {
		line := fmt.Sprintf("  %s %s", tr.At.Format(time.RFC3339), tr.State)
		if tr.Reason != "" {
			line += " " + tr.Reason
		}
		fmt.Println(line)
	}
	return nil
}
