package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gaborage/pagebricks/cache"
)

// CacheOptions selects what cache clear removes. At most one flag is set.
type CacheOptions struct {
	Invalidate bool
	Purge      bool
	All        bool
	AssetsOnly bool
	ImagesOnly bool
	CacheOnly  bool
	TmpOnly    bool
}

// Category maps the flags to a clear category, standard when none is set.
func (o *CacheOptions) Category() cache.ClearCategory {
	switch {
	case o.All:
		return cache.ClearAll
	case o.AssetsOnly:
		return cache.ClearAssetsOnly
	case o.ImagesOnly:
		return cache.ClearImagesOnly
	case o.CacheOnly:
		return cache.ClearCacheOnly
	case o.TmpOnly:
		return cache.ClearTmpOnly
	case o.Invalidate:
		return cache.ClearInvalidate
	default:
		return cache.ClearStandard
	}
}

// NewCacheCommand creates the cache command group.
func NewCacheCommand(global *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the page cache",
	}
	cmd.AddCommand(NewCacheClearCommand(global))
	return cmd
}

// NewCacheClearCommand creates cache clear. Per-location failures are printed
// and never change the exit code.
func NewCacheClearCommand(global *GlobalOptions) *cobra.Command {
	opts := &CacheOptions{}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear cache storage locations",
		Example: `  # Clear the driver, compiled caches and assets
  pagebricks cache clear

  # Remove everything, including images
  pagebricks cache clear --all

  # Delete stale cache generations
  pagebricks cache clear --purge`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCacheClear(cmd, global, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.Invalidate, "invalidate", false, "Invalidate the cache without removing any files")
	f.BoolVar(&opts.Purge, "purge", false, "Purge old cache generations")
	f.BoolVar(&opts.All, "all", false, "Remove every cache location, including images")
	f.BoolVar(&opts.AssetsOnly, "assets-only", false, "Remove only assets/*")
	f.BoolVar(&opts.ImagesOnly, "images-only", false, "Remove only images/*")
	f.BoolVar(&opts.CacheOnly, "cache-only", false, "Remove only cache/*")
	f.BoolVar(&opts.TmpOnly, "tmp-only", false, "Remove only tmp/*")
	cmd.MarkFlagsMutuallyExclusive("invalidate", "purge", "all", "assets-only", "images-only", "cache-only", "tmp-only")

	return cmd
}

func runCacheClear(cmd *cobra.Command, global *GlobalOptions, opts *CacheOptions) error {
	a, err := loadApp(cmd, global, true)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.Logger().Warn().Err(cerr).Msg("shutdown reported errors")
		}
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)

	if opts.Purge {
		fmt.Fprintln(out, "Purging old cache")
		fmt.Fprintln(out)
		if err := a.Cache().PurgeJob(cmd.Context(), out); err != nil {
			fmt.Fprintln(out, "Error: "+err.Error())
		}
		return nil
	}

	fmt.Fprintln(out, "Clearing cache")
	fmt.Fprintln(out)
	for _, line := range a.Cache().Clear(cmd.Context(), opts.Category()) {
		fmt.Fprintln(out, line)
	}
	return nil
}
