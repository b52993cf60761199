package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/daybook/internal/editor"
)

type editorOp func(st editor.State, req EditorRequest) (editor.State, editor.Removal, error)

var editorOps = map[string]editorOp{
	"snapshot": func(st editor.State, _ EditorRequest) (editor.State, editor.Removal, error) {
		return st, editor.Removal{}, nil
	},
	"toggle": func(st editor.State, req EditorRequest) (editor.State, editor.Removal, error) {
		a, err := editor.ParseAction(req.Action)
		if err != nil {
			return st, editor.Removal{}, errBadRequest(err.Error())
		}
		return st.Toggle(a), editor.Removal{}, nil
	},
	"size": func(st editor.State, req EditorRequest) (editor.State, editor.Removal, error) {
		n, err := editor.ParseSize(req.Size)
		if err != nil {
			return st, editor.Removal{}, err
		}
		return st.SetSize(n), editor.Removal{}, nil
	},
	"step": func(st editor.State, req EditorRequest) (editor.State, editor.Removal, error) {
		switch req.Direction {
		case "up", "increase", "+":
			return st.Increase(), editor.Removal{}, nil
		case "down", "decrease", "-":
			return st.Decrease(), editor.Removal{}, nil
		}
		return st, editor.Removal{}, errBadRequest("direction must be up or down")
	},
	"delete": func(st editor.State, req EditorRequest) (editor.State, editor.Removal, error) {
		key, ok := editor.ParseKey(req.Key)
		if !ok {
			return st, editor.Removal{}, errBadRequest("key must be backspace or delete")
		}
		next, removed := st.Delete(key)
		return next, removed, nil
	},
	"insert-text": func(st editor.State, req EditorRequest) (editor.State, editor.Removal, error) {
		return st.InsertText(req.Text), editor.Removal{}, nil
	},
}

type errBadRequest string

func (e errBadRequest) Error() string { return string(e) }

// EditorHandler runs stateless editor operations: the client sends the
// document and cursor, the server answers with the resulting state.
type EditorHandler struct {
	copier editor.ImageCopier
	cfg    editor.Config
}

// NewEditorHandler creates an EditorHandler.
func NewEditorHandler(copier editor.ImageCopier, cfg editor.Config) *EditorHandler {
	return &EditorHandler{copier: copier, cfg: cfg}
}

// Apply handles POST /api/editor/{op}.
//
//	@Summary		Apply an editor operation
//	@Description	op is one of snapshot, toggle, size, step, delete, insert-text, insert-image.
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			op		path		string			true	"Operation"
//	@Param			body	body		EditorRequest	true	"Editor state and argument"
//	@Success		200		{object}	EditorResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/editor/{op} [post]
func (h *EditorHandler) Apply(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "op")
	op, ok := editorOps[name]
	if !ok && name != "insert-image" {
		writeJSON(w, http.StatusNotFound, errorBody("unknown editor operation"))
		return
	}

	var req EditorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := editor.FromHTML(req.HTML, h.cfg)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid html"))
		return
	}
	anchor := req.Position
	if req.Anchor != nil {
		anchor = *req.Anchor
	}
	st = st.MoveTo(req.Position, anchor).WithPending(req.Pending)

	var removed editor.Removal
	if name == "insert-image" {
		st, err = st.InsertImage(r.Context(), h.copier, req.Path)
	} else {
		st, removed, err = op(st, req)
	}
	if err != nil {
		var bad errBadRequest
		if errors.As(err, &bad) {
			writeJSON(w, http.StatusBadRequest, errorBody(string(bad)))
			return
		}
		writeError(w, r, "editor "+name, err)
		return
	}

	writeJSON(w, http.StatusOK, EditorResponse{
		HTML:          st.HTML(),
		Position:      st.Position,
		Anchor:        st.Anchor,
		Pending:       st.Pending,
		Snapshot:      st.Snapshot(),
		RemovedImage:  removed.Image,
		RemovedImages: removed.Images,
	})
}
