package routes

import (
	"pongo_server/controllers"

	"github.com/gorilla/mux"
)

// RegisterGameRoutes sets up the read-only game endpoints under /game
func RegisterGameRoutes(r *mux.Router, game *controllers.GameController, stream *controllers.StreamController) {
	gameRouter := r.PathPrefix("/game").Subrouter()

	gameRouter.HandleFunc("/config", game.GetConfig).Methods("GET")
	gameRouter.HandleFunc("/rooms", game.ListRooms).Methods("GET")
	gameRouter.HandleFunc("/rooms/{roomId}/stream", stream.Stream).Methods("GET")
}
