package endpoints

import (
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/firscan/internal/api"
	"github.com/jackzampolin/firscan/internal/svcctx"
)

// FileEndpoint handles GET /api/file/{id}.
type FileEndpoint struct{}

var _ api.Endpoint = (*FileEndpoint)(nil)

func (e *FileEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/file/{id}", e.handler
}

func (e *FileEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Download an uploaded FIR
//	@Description	Serve the scan stored by an earlier upload
//	@Tags			extract
//	@Produce		application/pdf,image/png,image/jpeg
//	@Param			id	path		string	true	"File ID returned by upload"
//	@Success		200	{file}		binary
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/api/file/{id} [get]
func (e *FileEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	homeDir := svcctx.HomeFrom(r.Context())
	if homeDir == nil {
		writeError(w, http.StatusServiceUnavailable, "home directory not initialized")
		return
	}

	f, err := os.Open(homeDir.UploadPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// ServeContent sniffs the type of the stored scan.
	http.ServeContent(w, r, id, info.ModTime(), f)
}

func (e *FileEndpoint) Command(getServerURL func() string) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "file <id>",
		Short: "Download an uploaded FIR scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFile == "" {
				outputFile = args[0]
			}
			out, err := os.Create(outputFile)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			if err := client.Download(cmd.Context(), "/api/file/"+args[0], out); err != nil {
				out.Close()
				os.Remove(outputFile)
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			cmd.Println("Saved", outputFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputFile, "file", "f", "", "Output file path (default <id>)")
	return cmd
}
