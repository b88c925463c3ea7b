package media

import (
	"net/http"

	"apa-backoffice/internal/domain/errs"
	"apa-backoffice/internal/middleware"
	"apa-backoffice/internal/platform/httpx"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Post("/uploads", uploadHandler(svc))
}

// uploadHandler godoc
// @Summary Subir imagen
// @Description multipart/form-data con campos "folder" (pets, lost-pets, posts, partners) y "file".
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Param folder formData string true "Carpeta"
// @Param file formData file true "Imagen (jpeg, png, webp; máx 5MB)"
// @Success 201 {object} Result
// @Failure 400 {object} httpx.ErrorBody
// @Failure 401 {object} httpx.ErrorBody
// @Failure 503 {object} httpx.ErrorBody
// @Router /uploads [post]
func uploadHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxSize+(1<<16))
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			httpx.WriteError(w, r, errs.Invalid("file", "invalid multipart body"))
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			httpx.WriteError(w, r, errs.Invalid("file", "required"))
			return
		}
		defer f.Close()

		res, err := svc.Upload(r.Context(), middleware.ActorFrom(r.Context()), Upload{
			Folder:      r.FormValue("folder"),
			ContentType: hdr.Header.Get("Content-Type"),
			Size:        hdr.Size,
			Body:        f,
		})
		if err != nil {
			httpx.WriteError(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, res)
	}
}
