package version

import (
	"fmt"

	"lsf-finetune-launcher/pkg/utils"
)

// Info reports the launcher version together with the detected LSF
// version.
func Info() string {
	return fmt.Sprintf("%s\nLSF Version: %s", utils.GetVersion(), utils.GetLsfVersion())
}
