package controllers

import (
	"net/http"

	"pongo_server/models"
	"pongo_server/services"
	"pongo_server/utils"
)

// GameController serves the read-only game endpoints.
type GameController struct {
	Rooms *services.RoomRegistry
}

func NewGameController(rooms *services.RoomRegistry) *GameController {
	return &GameController{Rooms: rooms}
}

// GetConfig returns the gameplay tunables clients must use instead of
// hardcoding them.
func (gc *GameController) GetConfig(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, models.DefaultGameConfig())
}

// ListRooms returns a summary of every live room.
func (gc *GameController) ListRooms(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"rooms": gc.Rooms.List(),
	})
}
