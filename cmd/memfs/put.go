package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/diskfs/go-memfs/filesystem/treefs"
	"github.com/djherbis/times"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var putCmd = &cobra.Command{
	Use:   "put DIR HOSTFILE PATH",
	Short: "Copy a host file into the filesystem",
	Long: `Copy HOSTFILE to PATH, keeping its permission bits and its access,
modification and, where the host records it, birth time. An existing file at
PATH is replaced.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, hostFile, p := args[0], args[1], args[2]
		data, err := os.ReadFile(hostFile)
		if err != nil {
			return err
		}
		hostInfo, err := os.Stat(hostFile)
		if err != nil {
			return err
		}
		ts, err := times.Stat(hostFile)
		if err != nil {
			return fmt.Errorf("could not read times of %s: %w", hostFile, err)
		}

		vol, err := readVolume(dir)
		if err != nil {
			return err
		}
		defer vol.Close()

		switch err := vol.Remove(p); {
		case err == nil:
			log.WithField("path", p).Debug("replacing existing file")
		case !errors.Is(err, treefs.ErrNotExist):
			return err
		}
		if err := vol.Create(p, hostInfo.Mode().Perm()); err != nil {
			return err
		}
		if _, err := vol.Write(p, data); err != nil {
			_ = vol.Remove(p)
			return err
		}
		if err := vol.Chtimes(p, ts.AccessTime(), ts.ModTime()); err != nil {
			return err
		}
		if ts.HasBirthTime() {
			if err := vol.SetBirthTime(p, ts.BirthTime()); err != nil {
				return err
			}
		}
		log.WithFields(logrus.Fields{"from": hostFile, "to": p, "bytes": len(data)}).Info("copied file")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}
