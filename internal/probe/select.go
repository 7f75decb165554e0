package probe

import (
	"fmt"

	"github.com/Aman-CERP/shipcheck/internal/config"
)

// ForMode builds the dimension probe for a config.Probe mode. Mode "none"
// returns a nil probe and no error. Mode "command" fails with
// ProbeUnavailable when no external tool is installed.
func ForMode(mode string, cacheSize int) (DimensionProbe, error) {
	switch mode {
	case config.ProbeModeNone:
		return nil, nil
	case config.ProbeModeBuiltin, "":
		return NewCached(ImageDecoder{}, cacheSize), nil
	case config.ProbeModeCommand:
		c, err := LookupCommand()
		if err != nil {
			return nil, err
		}
		return NewCached(c, cacheSize), nil
	default:
		return nil, fmt.Errorf("unknown probe mode %q", mode)
	}
}
