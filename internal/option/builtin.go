package option

// builtin describes an option every session starts with.
type builtin struct {
	name  string
	typ   Type
	value string
}

var builtins = []builtin{
	{"tabstop", TypeInt, "8"},
	{"indentwidth", TypeInt, "4"},
	{"filetype", TypeString, ""},
	{"ignored_files", TypeRegex, `(\..*|.*\.(o|so|a))`},
	{"completers", TypeStringList, "filename"},
	{"autoinfo", TypeBool, "true"},
}

// RegisterBuiltins declares the default global options on m.
func RegisterBuiltins(m *Manager) error {
	for _, b := range builtins {
		opt, err := m.Declare(b.name, b.typ, FlagNone)
		if err != nil {
			return err
		}
		if err := opt.Set(b.value); err != nil {
			return err
		}
	}
	return nil
}
