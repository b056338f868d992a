package git

// LogFilters narrows which commits git log and git rev-list report.
type LogFilters struct {
	Since string
	Until string
}

// ToArgs renders the filters as git CLI arguments. Values pass through
// verbatim; git's own date parser is the authority on what they mean.
func (f LogFilters) ToArgs() []string {
	var args []string

	if f.Since != "" {
		args = append(args, "--since", f.Since)
	}

	if f.Until != "" {
		args = append(args, "--until", f.Until)
	}

	return args
}
