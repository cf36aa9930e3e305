package api

import (
	"errors"
	"net/http"

	"github.com/veilpool/veilpool/storage"
)

// receipt returns a stored operation receipt by its hex-encoded ID.
func (a *API) receipt(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamBytes(r, ReceiptURLParam)
	if err != nil {
		ErrResourceNotFound.WithErr(err).Write(w)
		return
	}
	receipt, err := a.engine.Receipt(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrReceiptNotFound.Write(w)
			return
		}
		fromEngineError(err).Write(w)
		return
	}
	httpWriteJSON(w, receipt)
}
