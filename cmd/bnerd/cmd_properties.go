package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"buildnerd/internal/buildtree"
	"buildnerd/internal/config"
	"buildnerd/internal/env"
	"buildnerd/internal/properties"
	"buildnerd/internal/sysprops"
	"buildnerd/internal/watch"
)

var (
	rootDirFlag   string
	projectDirs   []string
	projectProps  map[string]string
	sysPropArgs   map[string]string
	noSystemProps bool
	outputFormat  string
	watchMode     bool
)

// propertiesCmd resolves and prints the effective property set for a
// build root and any requested project directories.
var propertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "Resolve and print the effective build properties",
	Long: `Resolves the effective property set for the build rooted at --root.

Sources, highest precedence first:
  1. -P command-line project properties
  2. System properties prefixed buildnerd.project. (seeded by -D)
  3. Environment variables prefixed BUILDNERD_PROJECT_
  4. The project directory's buildnerd.properties (--project scope only)
  5. The build root's buildnerd.properties
  6. The user home's buildnerd.properties

Entries prefixed systemProp. are installed as system properties unless
--no-system-props is given; -D definitions always win over file entries.

With --watch, the command keeps running and re-resolves whenever a
watched buildnerd.properties file changes.`,
	RunE: runProperties,
}

func init() {
	propertiesCmd.Flags().StringVar(&rootDirFlag, "root", ".", "Build root directory")
	propertiesCmd.Flags().StringArrayVar(&projectDirs, "project", nil, "Project directory to resolve (repeatable)")
	propertiesCmd.Flags().StringToStringVarP(&projectProps, "project-prop", "P", nil, "Command-line project property (key=value)")
	propertiesCmd.Flags().StringToStringVarP(&sysPropArgs, "system-prop", "D", nil, "Command-line system property (key=value)")
	propertiesCmd.Flags().BoolVar(&noSystemProps, "no-system-props", false, "Do not install systemProp.-prefixed entries")
	propertiesCmd.Flags().StringVar(&outputFormat, "format", "plain", "Output format: plain, yaml or json")
	propertiesCmd.Flags().BoolVar(&watchMode, "watch", false, "Re-resolve whenever a properties file changes")
}

func runProperties(cmd *cobra.Command, args []string) error {
	rootDir, err := filepath.Abs(rootDirFlag)
	if err != nil {
		return fmt.Errorf("failed to resolve build root %q: %w", rootDirFlag, err)
	}

	// -D definitions take effect before any properties file is read, so
	// file-sourced systemProp. entries can never clobber them.
	store := sysprops.Process()
	for key, value := range sysPropArgs {
		store.Set(key, value)
	}

	start := properties.StartParameters{
		ProjectProperties:    projectProps,
		SystemPropertiesArgs: sysPropArgs,
		UserHomeDir:          config.UserHomeDir(),
	}
	controller := properties.NewController(&env.OS{SysProps: store}, start, nil, logger)
	buildID := buildtree.RootBuild()

	resolve := func() error {
		if err := controller.LoadBuildProperties(buildID, rootDir, !noSystemProps); err != nil {
			return err
		}
		return printResolved(cmd, controller, buildID, rootDir)
	}

	if err := resolve(); err != nil {
		return err
	}

	if !watchMode {
		return nil
	}
	return watchAndReresolve(cmd, controller, buildID, rootDir, resolve)
}

// printResolved prints the build-scoped properties followed by each
// requested project's properties. Projects are loaded concurrently; the
// controller serializes the underlying state transitions.
func printResolved(cmd *cobra.Command, controller *properties.Controller, buildID buildtree.BuildID, rootDir string) error {
	buildProps, err := controller.BuildProperties(buildID).AsMap()
	if err != nil {
		return err
	}

	type projectResult struct {
		id    buildtree.ProjectID
		props map[string]string
	}
	results := make([]projectResult, len(projectDirs))

	var g errgroup.Group
	g.SetLimit(4)
	for i, dir := range projectDirs {
		g.Go(func() error {
			projectDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("failed to resolve project dir %q: %w", dir, err)
			}
			id := buildtree.NewProjectID(buildID, projectPath(rootDir, projectDir))
			if err := controller.LoadProjectProperties(id, projectDir); err != nil {
				return err
			}
			props, err := controller.ProjectProperties(id).AsMap()
			if err != nil {
				return err
			}
			results[i] = projectResult{id: id, props: props}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sections := map[string]map[string]string{"build": buildProps}
	for _, r := range results {
		sections[r.id.String()] = r.props
	}
	return printSections(cmd, sections)
}

// projectPath derives a project path from its directory relative to the
// build root, e.g. <root>/lib/core -> :lib:core.
func projectPath(rootDir, projectDir string) string {
	rel, err := filepath.Rel(rootDir, projectDir)
	if err != nil || rel == "." {
		return buildtree.PathSeparator
	}
	return buildtree.PathSeparator + strings.ReplaceAll(rel, string(filepath.Separator), buildtree.PathSeparator)
}

func printSections(cmd *cobra.Command, sections map[string]map[string]string) error {
	switch outputFormat {
	case "yaml":
		data, err := yaml.Marshal(sections)
		if err != nil {
			return fmt.Errorf("failed to marshal properties: %w", err)
		}
		cmd.Print(string(data))
	case "json":
		data, err := json.MarshalIndent(sections, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal properties: %w", err)
		}
		cmd.Println(string(data))
	case "plain":
		names := make([]string, 0, len(sections))
		for name := range sections {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cmd.Printf("%s:\n", name)
			props := sections[name]
			keys := make([]string, 0, len(props))
			for k := range props {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				cmd.Printf("  %s=%s\n", k, props[k])
			}
		}
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
	return nil
}

// watchAndReresolve blocks, unloading and re-resolving the build whenever
// its properties file changes, until interrupted.
func watchAndReresolve(cmd *cobra.Command, controller *properties.Controller, buildID buildtree.BuildID, rootDir string, resolve func() error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := watch.NewWatcher(func(id buildtree.BuildID) {
		controller.UnloadBuildProperties(id)
		if err := resolve(); err != nil {
			logger.Error("failed to re-resolve properties", zap.Stringer("build", id), zap.Error(err))
		}
	}, toolConfig.GetWatchDebounce(), logger)
	if err != nil {
		return fmt.Errorf("failed to create properties watcher: %w", err)
	}
	if err := watcher.AddBuild(buildID, rootDir); err != nil {
		return fmt.Errorf("failed to watch build root %s: %w", rootDir, err)
	}

	watcher.Start(ctx)
	defer watcher.Stop()

	logger.Info("watching for properties changes", zap.String("root_dir", rootDir))
	<-ctx.Done()
	return nil
}
