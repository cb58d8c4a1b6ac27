package v1

import (
	"net/http"

	"github.com/go-chi/render"

	api "github.com/quizzy-ai/quizzy/api/v1"
)

func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Health{Status: "ok"})
}
