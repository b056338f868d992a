// Flag types shared by the subcommands.
package flagutils

import (
	"fmt"
	"strconv"
	"strings"
)

// Count is a flag.Value that is like a flag.Bool and a flag.Int.
// If used as -name, it increments the count, but -name=x sets the count.
// Used for the verbosity flag -v.
type Count int

func (c *Count) String() string {
	return fmt.Sprint(int(*c))
}

func (c *Count) Set(s string) error {
	switch s {
	case "true":
		*c++
	case "false":
		*c = 0
	default:
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid count %q", s)
		}
		*c = Count(n)
	}
	return nil
}

func (c *Count) IsBoolFlag() bool {
	return true
}

// List is a flag.Value that is like flag.String, but if repeated keeps
// appending to the old value, inserting commas as separators. This allows
// people to write -to a@x.org,b@x.org but also -to a@x.org -to b@x.org.
type List string

func (l *List) String() string {
	return string(*l)
}

func (l *List) Set(s string) error {
	if *l != "" && s != "" {
		*l += ","
	}
	*l += List(s)
	return nil
}

// Values splits the list into its entries, dropping empties.
func (l List) Values() []string {
	var values []string
	for _, v := range strings.Split(string(l), ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			values = append(values, v)
		}
	}

	return values
}

// SliceFlag is a flag.Value that collects every value it is given, so the
// flag can be repeated. Unlike List, values are kept verbatim; use this when
// a value could itself contain a comma.
type SliceFlag []string

func (f *SliceFlag) String() string {
	return strings.Join(*f, ", ")
}

func (f *SliceFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}
