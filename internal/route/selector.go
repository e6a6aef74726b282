package route

import "github.com/Aman-CERP/indexwrap/pkg/index"

// Select returns the first candidate whose descriptor key is name and whose
// version is version, or any version when version is empty. It returns nil
// when nothing matches.
func Select(candidates []index.Provider, name, version string) index.Provider {
	for _, c := range candidates {
		d := c.Descriptor()
		if d.Key == name && (version == "" || d.Version == version) {
			return c
		}
	}
	return nil
}
