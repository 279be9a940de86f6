package bootstrap

import (
	"fmt"

	"github.com/GriffinCanCode/AgentOS/sandbox3p/internal/shared/types"
)

// Custom bootstrap URL violations. All of them wrap types.ErrConfiguration.
var (
	ErrInvalidURL  = fmt.Errorf("%w: invalid custom bootstrap URL", types.ErrConfiguration)
	ErrNotHTTPS    = fmt.Errorf("%w: custom bootstrap URL must use https", types.ErrConfiguration)
	ErrQueryString = fmt.Errorf("%w: custom bootstrap URL must not contain a query string", types.ErrConfiguration)
	ErrSameOrigin  = fmt.Errorf("%w: custom bootstrap URL must not be on the host document origin", types.ErrConfiguration)
)
