package interfaces

import (
	"github.com/google/wire"

	"rentacar-server/chat-api/internal/interfaces/httpserver"
	"rentacar-server/chat-api/internal/interfaces/httpserver/handlers"
)

// InterfacesProvider provides all interface dependencies.
var InterfacesProvider = wire.NewSet(
	handlers.HandlerProvider,
	httpserver.New,
)
