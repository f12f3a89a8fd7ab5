package handler

import (
	"poker/internal/app/poker"
	"poker/internal/configs"
)

type AppDeps struct {
	Manager *poker.Manager
	Config  *configs.AppConfig
}
