package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/diskfs/go-memfs"
	"github.com/diskfs/go-memfs/fusefs"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	mountAllowOther bool
	mountDebug      bool
)

var mountCmd = &cobra.Command{
	Use:   "mount [DIR [MOUNTPOINT]]",
	Short: "Serve a filesystem over FUSE until interrupted",
	Long: `Serve the filesystem in DIR at MOUNTPOINT. A DIR without images gets a new
filesystem. Both default to imageDir and mountpoint from the configuration.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, mountpoint := cfg.ImageDir, cfg.Mountpoint
		if len(args) > 0 {
			dir = args[0]
		}
		if len(args) > 1 {
			mountpoint = args[1]
		}
		if mountpoint == "" {
			return fmt.Errorf("mountpoint is required")
		}
		if mounted, err := memfs.Mounted(mountpoint); err == nil && mounted {
			return fmt.Errorf("%s already has a FUSE filesystem mounted", mountpoint)
		}

		p, err := params()
		if err != nil {
			return err
		}
		vol, err := memfs.Open(dir, p)
		if err != nil {
			return err
		}
		defer vol.Close()

		server, err := fusefs.Mount(fusefs.Options{
			Mountpoint: mountpoint,
			FileSystem: vol,
			AllowOther: mountAllowOther || cfg.AllowOther,
			Debug:      mountDebug || cfg.FuseDebug,
			Logger:     log,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			log.WithField("mountpoint", mountpoint).Info("unmounting")
			if err := server.Unmount(); err != nil {
				log.WithError(err).Error("unmount failed")
			}
		}()
		server.Wait()
		stop()

		log.WithFields(logrus.Fields{"dir": vol.Dir(), "mountpoint": mountpoint}).Info("stopped serving")
		return nil
	},
}

func init() {
	mountCmd.Flags().BoolVar(&mountAllowOther, "allow-other", false, "let other users access the mount")
	mountCmd.Flags().BoolVar(&mountDebug, "debug", false, "log every FUSE request")
	rootCmd.AddCommand(mountCmd)
}
