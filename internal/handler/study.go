package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vlecture/vlecture-api/internal/flashcards"
	"github.com/vlecture/vlecture-api/internal/storage"
	"github.com/vlecture/vlecture-api/internal/transcription"
)

// StudyHandler exposes the note-study integrations: flashcard generation,
// audio upload URLs and transcription jobs. All routes are protected.
type StudyHandler struct {
	Flashcards *flashcards.Service
	Transcribe *transcription.Service
	Media      *storage.MediaStore
}

func NewStudyHandler(f *flashcards.Service, t *transcription.Service, m *storage.MediaStore) *StudyHandler {
	return &StudyHandler{Flashcards: f, Transcribe: t, Media: m}
}

type transcribeReq struct {
	Filename     string `json:"filename"`
	Format       string `json:"format"`
	LanguageCode string `json:"language_code"`
}

type uploadReq struct {
	Extension string `json:"extension"`
}

// GenerateFlashcards: gate on note length, then ask the model for cards.
func (h *StudyHandler) GenerateFlashcards(c echo.Context) error {
	if h.Flashcards == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "flashcard generation not configured"})
	}
	var req flashcards.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	// No request timeout here: model completions routinely exceed the 5s
	// budget used for storage-bound endpoints.
	out, err := h.Flashcards.Generate(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, flashcards.ErrNoteTooShort) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "note too short"})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "flashcard generation failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"flashcards": out})
}

// PresignAudioUpload: hand the client a presigned PUT URL for its audio file.
func (h *StudyHandler) PresignAudioUpload(c echo.Context) error {
	if h.Media == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "media storage not configured"})
	}
	var req uploadReq
	if err := c.Bind(&req); err != nil || req.Extension == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "extension required"})
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	key := storage.NewUploadKey(req.Extension)
	url, err := h.Media.PresignUpload(ctx, key)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "presign failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"key": key, "upload_url": url})
}

// StartTranscription: kick off a transcription job for an uploaded file and
// wait for the result. The poll loop is bounded, so the request terminates
// even when AWS never finishes the job.
func (h *StudyHandler) StartTranscription(c echo.Context) error {
	if h.Transcribe == nil || h.Media == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "transcription not configured"})
	}
	var req transcribeReq
	if err := c.Bind(&req); err != nil || req.Filename == "" || req.Format == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "filename/format required"})
	}

	jobName := "vlecture-" + uuid.NewString()
	fileURI := transcription.MediaURI(h.Media.Bucket(), req.Filename, req.Format)

	res, err := h.Transcribe.Transcribe(c.Request().Context(), jobName, fileURI, req.Format, req.LanguageCode)
	if err != nil {
		switch {
		case errors.Is(err, transcription.ErrPollTimeout):
			return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "transcription timed out"})
		case errors.Is(err, transcription.ErrJobFailed):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "transcription job failed"})
		default:
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "transcription failed"})
		}
	}
	return c.JSON(http.StatusOK, res)
}
