package handler

import (
	"sketchroom/internal/app/board"
	"sketchroom/internal/configs"
)

type AppDeps struct {
	Manager *board.Manager
	Config  *configs.AppConfig
}
