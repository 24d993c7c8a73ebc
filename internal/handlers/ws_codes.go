// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the game gateway.
const (
	BadSubprotocolError = 3000 // Client connected without the uno subprotocol.
	ServerShuttingDown  = 3001 // Registry closed while the connection was open.
)
