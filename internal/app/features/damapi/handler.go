// Package damapi provides the storefront-facing catalog API.
//
// Endpoints:
//   - GET/POST /api/dam - catalog actions, discriminated by "action"
//   - POST /api/dam/upload - multipart file upload
//
// Actions accept a JSON body, a form-encoded body, or (for GET) plain
// query parameters. Every request carries an API key (Bearer token), a
// shop domain (X-Shop-Domain header or "shop" param), and the caller's
// role tags (X-Storefront-Roles header or "roles" param). Responses use
// {"success": true, ...} or {"success": false, "error": "..."} envelopes.
package damapi

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dalemusser/stratadam/internal/app/dam"
	"github.com/dalemusser/stratadam/internal/app/system/jsonutil"
	"github.com/dalemusser/stratadam/internal/app/system/ledger"
	"github.com/dalemusser/stratadam/internal/app/system/normalize"
	"github.com/dalemusser/stratadam/internal/domain/models"
)

// Handler handles catalog API requests.
type Handler struct {
	svc         *dam.Service
	logger      *zap.Logger
	defaultShop string
	maxBodySize int64
}

// NewHandler creates a new catalog API handler. maxBodySize bounds the
// multipart upload endpoint's accepted payload.
func NewHandler(svc *dam.Service, logger *zap.Logger, defaultShop string, maxBodySize int64) *Handler {
	return &Handler{
		svc:         svc,
		logger:      logger,
		defaultShop: defaultShop,
		maxBodySize: maxBodySize,
	}
}

// actionRequest is the union of every JSON action's fields. Each action
// reads the subset it needs.
type actionRequest struct {
	Action string `json:"action"`

	// Folder and file identification
	ID          string   `json:"id"`
	IDs         []string `json:"ids"`
	FolderID    string   `json:"folderId"`
	ParentID    string   `json:"parentId"`
	NewParentID string   `json:"newParentId"`
	NewFolderID string   `json:"newFolderId"`

	// Creation and rename fields
	Name        string    `json:"name"`
	NewName     string    `json:"newName"`
	Color       string    `json:"color"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	CreatedBy   string    `json:"createdBy"`

	// Copy fields
	SourceID      string `json:"sourceId"`
	DestinationID string `json:"destinationId"`

	// Listing and search fields
	SortBy      string `json:"sortBy"`
	SortOrder   string `json:"sortOrder"`
	Search      string `json:"search"`
	Query       string `json:"query"`
	TagFilter   string `json:"tagFilter"`
	FolderScope string `json:"folderScope"`
	Limit       int    `json:"limit"`
}

// readActions may be invoked with GET; everything else mutates the
// catalog and requires POST.
var readActions = map[string]bool{
	"list":        true,
	"search":      true,
	"breadcrumbs": true,
}

// decodeActionRequest reads the action fields from wherever the request
// carries them: query parameters for GET, the parsed form for
// form-encoded POSTs, the JSON body otherwise. An empty JSON body is not
// an error; the action may arrive via the query string alone.
func decodeActionRequest(r *http.Request) (actionRequest, error) {
	var in actionRequest
	switch {
	case r.Method == http.MethodGet:
		fillActionRequest(&in, r.URL.Query())
	case strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return in, err
		}
		fillActionRequest(&in, r.PostForm)
	default:
		if err := jsonutil.DecodeBody(r, &in); err != nil && !errors.Is(err, io.EOF) {
			return in, err
		}
	}
	return in, nil
}

// fillActionRequest maps query or form values onto the action fields.
// List-valued fields (ids, tags) are comma-separated.
func fillActionRequest(in *actionRequest, values url.Values) {
	in.Action = values.Get("action")
	in.ID = values.Get("id")
	in.FolderID = values.Get("folderId")
	in.ParentID = values.Get("parentId")
	in.NewParentID = values.Get("newParentId")
	in.NewFolderID = values.Get("newFolderId")
	in.Name = normalize.Name(values.Get("name"))
	in.NewName = normalize.Name(values.Get("newName"))
	in.Color = values.Get("color")
	in.CreatedBy = values.Get("createdBy")
	in.SourceID = values.Get("sourceId")
	in.DestinationID = values.Get("destinationId")
	in.SortBy = values.Get("sortBy")
	in.SortOrder = values.Get("sortOrder")
	in.Search = values.Get("search")
	in.Query = values.Get("query")
	in.TagFilter = values.Get("tagFilter")
	in.FolderScope = values.Get("folderScope")
	if raw := values.Get("limit"); raw != "" {
		in.Limit, _ = strconv.Atoi(raw)
	}
	if values.Has("ids") {
		in.IDs = splitList(values.Get("ids"))
	}
	if values.Has("description") {
		d := values.Get("description")
		in.Description = &d
	}
	if values.Has("tags") {
		t := splitList(values.Get("tags"))
		in.Tags = &t
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ActionHandler handles GET and POST /api/dam. The action is taken from
// the "action" query parameter or, failing that, the request body. An
// empty body is fine when the query string carries the action.
func (h *Handler) ActionHandler(w http.ResponseWriter, r *http.Request) {
	in, err := decodeActionRequest(r)
	if err != nil {
		writeJSONError(w, r, "Invalid request payload", http.StatusBadRequest)
		return
	}

	action := normalize.QueryParam(r.URL.Query().Get("action"))
	if action == "" {
		action = normalize.QueryParam(in.Action)
	}
	if action == "" {
		writeJSONError(w, r, "Missing action", http.StatusBadRequest)
		return
	}
	if r.Method == http.MethodGet && !readActions[action] {
		writeJSONError(w, r, "Action requires POST", http.StatusMethodNotAllowed)
		return
	}

	actor := h.actorFrom(r)
	ledger.SetAction(r.Context(), action)
	ledger.SetShop(r.Context(), actor.Shop)

	ctx := r.Context()
	switch action {
	case "list":
		contents, err := h.svc.Contents(ctx, actor, defaultID(in.FolderID), dam.ContentsOptions{
			SortBy:    in.SortBy,
			SortOrder: in.SortOrder,
			Search:    in.Search,
		})
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"folders": contents.Folders, "files": contents.Files})

	case "search":
		results, err := h.svc.Search(ctx, actor, in.Query, dam.SearchOptions{
			TagFilter:   in.TagFilter,
			FolderScope: in.FolderScope,
			Limit:       in.Limit,
		})
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"folders": results.Folders, "files": results.Files})

	case "breadcrumbs":
		crumbs, err := h.svc.Breadcrumbs(ctx, actor, defaultID(in.ID))
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"breadcrumbs": crumbs})

	case "create_folder":
		folder, err := h.svc.CreateFolder(ctx, actor, dam.CreateFolderInput{
			Name:        in.Name,
			ParentID:    defaultID(in.ParentID),
			Color:       in.Color,
			Description: stringValue(in.Description),
			CreatedBy:   in.CreatedBy,
		})
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"folder": folder})

	case "rename_folder":
		folder, err := h.svc.RenameFolder(ctx, actor, in.ID, in.NewName)
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"folder": folder})

	case "move_folder":
		folder, err := h.svc.MoveFolder(ctx, actor, in.ID, defaultID(in.NewParentID))
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"folder": folder})

	case "delete_folder":
		result, err := h.svc.DeleteFolder(ctx, actor, in.ID)
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{
			"foldersDeleted": result.FoldersDeleted,
			"filesDeleted":   result.FilesDeleted,
		})

	case "copy_folder":
		result, err := h.svc.CopyFolder(ctx, actor, in.SourceID, defaultID(in.DestinationID))
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"folders": result.Folders, "files": result.Files})

	case "rename_file":
		file, err := h.svc.RenameFile(ctx, actor, in.ID, in.NewName)
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"file": file})

	case "move_file":
		file, err := h.svc.MoveFile(ctx, actor, in.ID, defaultID(in.NewFolderID))
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"file": file})

	case "update_file":
		file, err := h.svc.UpdateFile(ctx, actor, in.ID, dam.UpdateFileInput{
			Description: in.Description,
			Tags:        in.Tags,
		})
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"file": file})

	case "delete_file":
		if err := h.svc.DeleteFile(ctx, actor, in.ID); err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"id": in.ID})

	case "bulk_move_files":
		result, err := h.svc.BulkMoveFiles(ctx, actor, in.IDs, defaultID(in.NewFolderID))
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"succeeded": result.Succeeded, "failed": result.Failed})

	case "bulk_delete_files":
		result, err := h.svc.BulkDeleteFiles(ctx, actor, in.IDs)
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"succeeded": result.Succeeded, "failed": result.Failed})

	case "record_download":
		file, err := h.svc.RecordDownload(ctx, actor, in.ID)
		if err != nil {
			h.writeActionError(w, r, action, err)
			return
		}
		jsonutil.WriteSuccess(w, map[string]any{"file": file})

	default:
		writeJSONError(w, r, "Unknown action: "+action, http.StatusBadRequest)
	}
}

// UploadHandler handles POST /api/dam/upload as multipart form data with
// fields file, folderId, description, and tags (comma-separated).
func (h *Handler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	actor := h.actorFrom(r)
	ledger.SetAction(r.Context(), "upload_file")
	ledger.SetShop(r.Context(), actor.Shop)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, r, "Upload exceeds the maximum accepted size", http.StatusBadRequest)
			return
		}
		writeJSONError(w, r, "Invalid multipart payload", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	part, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, r, "Missing file field", http.StatusBadRequest)
		return
	}
	defer part.Close()

	mimeType := header.Header.Get("Content-Type")
	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		tags = splitList(raw)
	}

	file, err := h.svc.UploadFile(r.Context(), actor, dam.UploadFileInput{
		FolderID:    defaultID(r.FormValue("folderId")),
		Name:        normalize.Name(header.Filename),
		MimeType:    mimeType,
		Size:        header.Size,
		Content:     part,
		Description: r.FormValue("description"),
		Tags:        tags,
		CreatedBy:   r.FormValue("createdBy"),
	})
	if err != nil {
		h.writeActionError(w, r, "upload_file", err)
		return
	}

	jsonutil.WriteSuccess(w, map[string]any{"file": file})
}

// actorFrom resolves the calling shop and roles from request headers,
// falling back to the "shop" and "roles" query parameters.
func (h *Handler) actorFrom(r *http.Request) dam.Actor {
	shop := normalize.Shop(r.Header.Get("X-Shop-Domain"))
	if shop == "" {
		shop = normalize.Shop(r.URL.Query().Get("shop"))
	}
	if shop == "" {
		shop = h.defaultShop
	}
	roles := r.Header.Get("X-Storefront-Roles")
	if roles == "" {
		roles = r.URL.Query().Get("roles")
	}
	return dam.Actor{
		Shop:  shop,
		Roles: normalize.Roles(roles),
	}
}

// writeActionError logs a failed action and writes the caller-safe error.
func (h *Handler) writeActionError(w http.ResponseWriter, r *http.Request, action string, err error) {
	status := statusForError(err)
	if status >= 500 {
		h.logger.Error("catalog action failed",
			zap.String("action", action),
			zap.Int("status", status),
			zap.Error(err))
	} else {
		h.logger.Debug("catalog action rejected",
			zap.String("action", action),
			zap.Int("status", status),
			zap.Error(err))
	}
	writeJSONError(w, r, err.Error(), status)
}

// statusForError maps engine error kinds onto HTTP status codes.
func statusForError(err error) int {
	kind, ok := dam.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case dam.KindValidation:
		return http.StatusBadRequest
	case dam.KindNotFound:
		return http.StatusNotFound
	case dam.KindConflict:
		return http.StatusConflict
	case dam.KindAccessDenied:
		return http.StatusForbidden
	case dam.KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// defaultID treats an empty folder reference as the root folder.
func defaultID(id string) string {
	if id == "" {
		return models.RootFolderID
	}
	return id
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// writeJSONError records the error on the request's ledger entry and
// writes the JSON error envelope.
func writeJSONError(w http.ResponseWriter, r *http.Request, msg string, code int) {
	ledger.SetErrorMessage(r.Context(), msg)
	jsonutil.WriteError(w, code, msg)
}
