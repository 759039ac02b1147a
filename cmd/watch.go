package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/mapforge/internal/migration"
	"github.com/papapumpkin/mapforge/internal/session"
	"github.com/papapumpkin/mapforge/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <home> <map>",
	Short: "Keep a map in step with the project manifest as it changes",
	Long: `Opens the map and watches <home>/project/version.json. Existing-code
migrations added to the manifest are applied to the open map in place; any
other change reloads the map from disk. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Bool("save", false, "save the map after every applied change")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	save, _ := cmd.Flags().GetBool("save")

	ctx, cancel := signalContext()
	defer cancel()

	e, err := openProject(ctx, args[0])
	if err != nil {
		return err
	}
	defer e.close()

	res, err := e.session.OpenMap(ctx, args[1])
	e.printer.MapResult(res, err)
	if err != nil {
		return err
	}

	w, err := watch.NewWatcher(migration.VersionFilePath(e.home))
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := w.Start(); err != nil {
		return fmt.Errorf("watch: start: %w", err)
	}
	defer w.Stop()
	e.printer.Info(fmt.Sprintf("watching %s", w.File))

	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.Changes:
			if !ok {
				return nil
			}
			if change.Kind == watch.ChangeRemoved {
				e.printer.Info(fmt.Sprintf("%s was removed; keeping the open manifest", change.File))
				continue
			}
			if err := applyManifestChange(ctx, e, change, save); err != nil {
				e.printer.Error(err.Error())
			}
		}
	}
}

// applyManifestChange brings the session up to date with the manifest on
// disk. Manifests the session already reflects are ignored, so saving the map
// (which rewrites the manifest) does not feed back into the loop.
func applyManifestChange(ctx context.Context, e *env, change watch.Change, save bool) error {
	vf, ok, err := e.svc.ReadVersionFile(e.home)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	cur, err := e.session.VersionFile()
	if err != nil {
		return err
	}
	if vf.ProjectVersion == cur.ProjectVersion && vf.EditorVersion == cur.EditorVersion {
		return nil
	}

	reloaded := false
	err = e.session.ApplyManifest(ctx, vf)
	if errors.Is(err, session.ErrReloadRequired) {
		reloaded = true
		var res session.Result
		res, err = e.session.Reload(ctx)
		e.printer.MapResult(res, err)
	}
	if err != nil {
		return err
	}
	e.printer.ManifestChanged(change.File, reloaded)

	if save {
		return e.session.SaveMap(ctx)
	}
	return nil
}
