package server

import (
	"errors"
	"html/template"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/demovote/internal/imaging"
	"github.com/playperu/demovote/internal/scenario"
)

type editorPage struct {
	Input         scenario.Input
	Alert         string
	Saved         bool
	MaxCandidates int
	// PreviewURL, when set, opens the saved booth in a frame over the form.
	PreviewURL string
}

// editorInput pre-fills the form. A record that was never saved leaves the
// text fields empty and only carries the 19 / 6 / website fallbacks.
func editorInput(rec scenario.Record, isDefault bool) scenario.Input {
	if isDefault {
		return scenario.Record{}.Input()
	}
	return rec.Input()
}

func handleEditorPage(logger *slog.Logger, pages *template.Template, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, isDefault := LoadRecord(r.Context(), d.Store, logger)
		render(w, logger, pages, "editor.html", http.StatusOK, editorPage{
			Input:         editorInput(rec, isDefault),
			MaxCandidates: scenario.MaxCandidates,
		})
	}
}

func handleEditorSubmit(logger *slog.Logger, pages *template.Template, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, d.MaxUploadBytes)
		if err := r.ParseMultipartForm(d.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		stored, isDefault := LoadRecord(r.Context(), d.Store, logger)
		in := formInput(r)
		page := editorPage{Input: in, MaxCandidates: scenario.MaxCandidates}

		// An image field keeps the stored value unless a new one arrives,
		// either pre-normalized in the hidden field or as a raw upload.
		if !isDefault {
			in.CandidatePhoto = stored.CandidatePhoto
			in.CandidateSymbol = stored.CandidateSymbol
		}
		for field, dst := range map[string]*string{
			"candidatePhotoData":  &in.CandidatePhoto,
			"candidateSymbolData": &in.CandidateSymbol,
		} {
			v := strings.TrimSpace(r.FormValue(field))
			if v == "" {
				continue
			}
			bounded, err := imaging.NormalizeDataURI(v, d.Images)
			if err != nil {
				var de *imaging.DecodeError
				if !errors.As(err, &de) {
					logger.Error("normalizing image field", "field", field, "error", err)
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				page.Input = in
				page.Alert = imaging.DecodeMessage
				render(w, logger, pages, "editor.html", http.StatusUnprocessableEntity, page)
				return
			}
			*dst = bounded
		}

		type upload struct {
			field string
			file  multipart.File
			dst   *string
		}
		var uploads []upload
		for field, dst := range map[string]*string{
			"candidatePhoto":  &in.CandidatePhoto,
			"candidateSymbol": &in.CandidateSymbol,
		} {
			f, err := formFile(r, field)
			if err != nil {
				for _, u := range uploads {
					u.file.Close()
				}
				logger.Error("reading upload", "field", field, "error", err)
				http.Error(w, "invalid form", http.StatusBadRequest)
				return
			}
			if f != nil {
				uploads = append(uploads, upload{field: field, file: f, dst: dst})
			}
		}

		g := new(errgroup.Group)
		for _, u := range uploads {
			g.Go(func() error {
				defer u.file.Close()
				img, err := normalizeUpload(logger, u.field, u.file, d.Images)
				if err != nil {
					return err
				}
				*u.dst = img.DataURI
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			var de *imaging.DecodeError
			if !errors.As(err, &de) {
				logger.Error("normalizing upload", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			page.Input = in
			page.Alert = imaging.DecodeMessage
			render(w, logger, pages, "editor.html", http.StatusUnprocessableEntity, page)
			return
		}

		rec, err := SaveInput(r.Context(), d.Store, in, d.Now())
		if err != nil {
			ve, ok := scenario.IsValidation(err)
			if !ok {
				logger.Error("saving scenario", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			page.Input = in
			page.Alert = ve.Message
			render(w, logger, pages, "editor.html", http.StatusBadRequest, page)
			return
		}
		logger.Info("scenario saved", "constituency", rec.ConstituencyName, "total", rec.TotalCandidates, "position", rec.CandidatePosition)

		page.Input = rec.Input()
		page.Saved = true
		if r.FormValue("action") == "preview" {
			page.PreviewURL = previewURL(d.Now())
		}
		render(w, logger, pages, "editor.html", http.StatusOK, page)
	}
}

func formInput(r *http.Request) scenario.Input {
	return scenario.Input{
		ConstituencyName:  r.FormValue("constituencyName"),
		VotingDate:        r.FormValue("votingDate"),
		StartTime:         r.FormValue("startTime"),
		EndTime:           r.FormValue("endTime"),
		CandidateName:     r.FormValue("candidateName"),
		TotalCandidates:   formInt(r, "totalCandidates"),
		CandidatePosition: formInt(r, "candidatePosition"),
		SymbolName:        r.FormValue("symbolName"),
		WebsiteName:       r.FormValue("websiteName"),
		ContactNumber:     r.FormValue("contactNumber"),
	}
}

// formInt reads an integer field; anything unparsable becomes 0, which the
// range rules then reject.
func formInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	if err != nil {
		return 0
	}
	return n
}

// formFile returns the uploaded file for field, or nil when none was chosen.
func formFile(r *http.Request, field string) (multipart.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if hdr.Size == 0 {
		f.Close()
		return nil, nil
	}
	return f, nil
}
