package ctl

// Indirection layer to allow stubbing in tests

var (
	fnShowStatus = showStatus
	fnListAssets = listAssets
	fnLoadFamily = loadFamily
	fnPrefetch   = prefetchFamilies
	fnShowState  = showState
	fnTailEvents = tailEvents
)
