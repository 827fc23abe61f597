package main

import (
	"fmt"

	"github.com/diskfs/go-memfs"
	"github.com/diskfs/go-memfs/filesystem/treefs"
	"github.com/spf13/cobra"
)

var (
	mkfsForce         bool
	mkfsBlockSize     uint32
	mkfsBlockCount    uint32
	mkfsInodeCount    uint32
	mkfsBlocksPerFile uint32
	mkfsNoPreallocate bool
	mkfsLayout        string
	mkfsCompression   string
)

var mkfsCmd = &cobra.Command{
	Use:   "mkfs DIR",
	Short: "Create an empty filesystem in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		v := &cfg.Volume
		if flags.Changed("block-size") {
			v.BlockSize = mkfsBlockSize
		}
		if flags.Changed("block-count") {
			v.BlockCount = mkfsBlockCount
		}
		if flags.Changed("inode-count") {
			v.InodeCount = mkfsInodeCount
		}
		if flags.Changed("blocks-per-file") {
			v.BlocksPerFile = mkfsBlocksPerFile
		}
		if flags.Changed("no-preallocate") {
			v.Preallocate = !mkfsNoPreallocate
		}
		if flags.Changed("layout") {
			v.Layout = mkfsLayout
		}
		if flags.Changed("compression") {
			v.Compression = mkfsCompression
		}
		p, err := params()
		if err != nil {
			return err
		}

		vol, err := memfs.Create(args[0], p, mkfsForce)
		if err != nil {
			return err
		}
		defer vol.Close()
		usage := vol.Usage()
		fmt.Fprintf(cmd.OutOrStdout(), "created %s: volume %s, %d blocks of %d bytes, %d inodes, %s layout, %s compression\n",
			vol.Dir(), vol.UUID(), usage.TotalBlocks, usage.BlockSize, usage.TotalInodes, vol.Layout(), vol.Compression())
		return nil
	},
}

func init() {
	f := mkfsCmd.Flags()
	f.BoolVarP(&mkfsForce, "force", "f", false, "replace existing images")
	f.Uint32Var(&mkfsBlockSize, "block-size", treefs.DefaultBlockSize, "bytes per data block")
	f.Uint32Var(&mkfsBlockCount, "block-count", treefs.DefaultBlockCount, "number of data blocks")
	f.Uint32Var(&mkfsInodeCount, "inode-count", treefs.DefaultInodeCount, "number of inodes")
	f.Uint32Var(&mkfsBlocksPerFile, "blocks-per-file", treefs.DefaultBlocksPerFile, "blocks a single file can use")
	f.BoolVar(&mkfsNoPreallocate, "no-preallocate", false, "allocate blocks as files grow instead of on create")
	f.StringVar(&mkfsLayout, "layout", treefs.LayoutTree.String(), "tree image layout: tree or flat")
	f.StringVar(&mkfsCompression, "compression", treefs.CompressionNone.String(), "superblock compression: none, gzip, zstd, lz4, xz, lzma")
	rootCmd.AddCommand(mkfsCmd)
}
