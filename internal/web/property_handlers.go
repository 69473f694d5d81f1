package web

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/evcraddock/emptytohome/internal/auth"
	"github.com/evcraddock/emptytohome/internal/form"
	"github.com/evcraddock/emptytohome/internal/property"
	"github.com/evcraddock/emptytohome/internal/storage"
)

type propertyListData struct {
	Properties []*property.Property
}

// handlePropertyList lists every property.
func (s *Server) handlePropertyList(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireRole(w, r); !ok {
		return
	}

	props, err := s.properties.List(property.ListOptions{})
	if err != nil {
		serverError(w, r, "listing properties", err)
		return
	}

	s.render(w, r, "property_list.html", propertyListData{Properties: props})
}

type searchData struct {
	City      string
	MinRooms  string
	Courtyard bool
	Searched  bool
	Results   []*property.Property
	Errors    form.Errors
}

// handleSearchProperties filters properties by city, rooms and courtyard.
func (s *Server) handleSearchProperties(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireRole(w, r); !ok {
		return
	}

	q := r.URL.Query()
	data := searchData{
		City:      strings.TrimSpace(q.Get("city")),
		MinRooms:  strings.TrimSpace(q.Get("min_rooms")),
		Courtyard: q.Get("courtyard") != "",
		Errors:    form.Errors{},
	}
	data.Searched = q.Has("city") || q.Has("min_rooms") || q.Has("courtyard")

	minRooms := data.Errors.NonNegativeInt("min_rooms", data.MinRooms)
	if data.Searched && !data.Errors.Any() {
		results, err := s.properties.List(property.ListOptions{
			City:          data.City,
			MinRooms:      minRooms,
			CourtyardOnly: data.Courtyard,
		})
		if err != nil {
			serverError(w, r, "searching properties", err)
			return
		}
		data.Results = results
	}

	s.render(w, r, "search_properties.html", data)
}

type imageFormData struct {
	Properties []*property.Property
	PropertyID string
	Errors     form.Errors
}

const msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// manageable returns the properties user may attach images to.
func (s *Server) manageable(user *auth.User) ([]*property.Property, error) {
	opts := property.ListOptions{}
	if user.Type == auth.Owner {
		opts.OwnerID = user.ID
	}
	return s.properties.List(opts)
}

func (s *Server) renderImageForm(w http.ResponseWriter, r *http.Request, user *auth.User, propertyID string, errs form.Errors) {
	props, err := s.manageable(user)
	if err != nil {
		serverError(w, r, "listing properties", err)
		return
	}
	s.render(w, r, "upload_property_image.html", imageFormData{Properties: props, PropertyID: propertyID, Errors: errs})
}

// handleUploadImagePage renders the property image form.
func (s *Server) handleUploadImagePage(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.Owner, auth.Institution)
	if !ok {
		return
	}
	s.renderImageForm(w, r, user, r.URL.Query().Get("property"), nil)
}

// handleUploadImageSubmit stores an image for a property the user manages.
func (s *Server) handleUploadImageSubmit(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireRole(w, r, auth.Owner, auth.Institution)
	if !ok {
		return
	}

	file, header, errs, ok := parseUpload(w, r, "image")
	if !ok {
		return
	}
	if file != nil {
		defer closeUpload(file)
	}

	rawID := r.FormValue("property")
	errs.Required("property", rawID)
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if rawID != "" && (err != nil || id <= 0) {
		errs.Add("property", "Select a valid choice. That choice is not one of the available choices.")
	}
	if file == nil {
		errs.Add("image", "This field is required.")
	}
	if errs.Any() {
		s.renderImageForm(w, r, user, rawID, errs)
		return
	}

	// Sniff the first bytes, then replay them ahead of the rest of the file.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		serverError(w, r, "reading upload", err)
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") {
		s.renderImageForm(w, r, user, rawID, form.Errors{"image": msgInvalidImage})
		return
	}

	body := io.MultiReader(bytes.NewReader(head), file)
	_, err = s.propSvc.SetImage(r.Context(), user, id, header.Filename, body, header.Size, contentType)
	switch {
	case err == nil:
		http.Redirect(w, r, "/property_list/", http.StatusSeeOther)
	case errors.Is(err, property.ErrNotFound), errors.Is(err, property.ErrForbidden):
		s.renderImageForm(w, r, user, rawID, form.Errors{"property": "Select a valid choice. That choice is not one of the available choices."})
	default:
		serverError(w, r, "storing property image", err)
	}
}

// handlePropertyImage serves a stored property image.
func (s *Server) handlePropertyImage(w http.ResponseWriter, r *http.Request) {
	key := storage.PropertyImages + "/" + r.PathValue("name")
	if storage.ValidateKey(key) != nil {
		http.NotFound(w, r)
		return
	}

	rc, err := s.files.Open(r.Context(), key)
	if errors.Is(err, storage.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		serverError(w, r, "opening image", err)
		return
	}
	defer func() {
		if err := rc.Close(); err != nil {
			slog.Warn("closing image", "err", err)
		}
	}()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Debug("streaming image", "key", key, "err", err)
	}
}
