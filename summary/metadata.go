package summary

// Metadata is the externally validated name/help/unit of a Summary.
// Validation of these fields (e.g. metric naming rules) is the
// responsibility of the collaborator that constructs the Builder; the core
// only carries the value through to snapshots.
type Metadata struct {
	Name string
	Help string
	Unit string
}
