package swagger

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.yml
var spec []byte

// Handler serves the swagger UI pointed at the embedded document.
func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL("/openapi.yml"),
	)
}

// Spec serves the OpenAPI document of the portal's JSON endpoints.
func Spec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec)
}
