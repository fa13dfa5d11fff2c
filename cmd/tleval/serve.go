package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Brownie44l1/tl-eval/internal/dataset"
	"github.com/Brownie44l1/tl-eval/internal/handlers"
	"github.com/Brownie44l1/tl-eval/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <model-name> <weights.onnx> <metadata.json>",
		Short: "Serve a trained classifier over HTTP",
		Long: `Serve a trained classifier over HTTP.

Endpoints:
  GET  /health         health check
  POST /predict        raw CHW float array prediction
  POST /predict/image  prediction from a JPEG/PNG upload (form field "image")`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), args[0], args[1], args[2])
		},
	}

	cmd.Flags().String("port", "", "listen port (default from server.port)")
	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(ctx context.Context, modelName, weightsPath, metadataPath string) error {
	arch, err := model.Lookup(modelName)
	if err != nil {
		return err
	}

	metadata, err := model.LoadMetadata(metadataPath, arch)
	if err != nil {
		return err
	}

	slog.Info("Loading model", "path", weightsPath, "architecture", arch.Name)

	clf, err := model.NewClassifier(arch, weightsPath, len(metadata.Classes), model.Options{
		Device:      model.Device(appConfig.Eval.Device),
		LibraryPath: appConfig.ONNX.LibraryPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize model server: %w", err)
	}
	defer model.Shutdown()
	defer clf.Close()

	modelServer := model.NewServer(clf, arch, metadata)
	transform := dataset.Transform{Size: arch.InputSize, Resize: appConfig.Eval.Resize}
	handler := handlers.NewHandler(modelServer, transform, slog.Default())

	mux := http.NewServeMux()
	handler.Routes(mux)

	port := appConfig.Server.Port
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Server starting",
		"port", port,
		"classes", metadata.Classes,
		"endpoints", []string{"GET /health", "POST /predict", "POST /predict/image"})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
