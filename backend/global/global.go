package global

import (
	"fleet-relay/backend/config"

	"github.com/rs/zerolog"
)

var (
	Config config.Config
	Logger = zerolog.Nop()
)
