package server

import "net/http"

// newStaticHandler serves the pre-built UI bundle. Every non-API GET
// ends up here, so the bundle's own router can claim whatever paths it
// likes below the API prefix.
func newStaticHandler(dir string) http.Handler {
	return http.FileServer(http.Dir(dir))
}
