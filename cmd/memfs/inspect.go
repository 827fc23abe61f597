package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/diskfs/go-memfs/filesystem/treefs"
	"github.com/spf13/cobra"
)

var lsLong bool

var lsCmd = &cobra.Command{
	Use:   "ls DIR PATH",
	Short: "List a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vol, err := readVolume(args[0])
		if err != nil {
			return err
		}
		defer vol.Close()
		out := cmd.OutOrStdout()
		if !lsLong {
			names, err := vol.List(args[1])
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			return nil
		}
		infos, err := vol.ReadDir(args[1])
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 1, ' ', tabwriter.AlignRight)
		for _, fi := range infos {
			info := fi.(*treefs.FileInfo)
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%s\t%s\t\n",
				info.Mode(), info.Nlink(), info.Uid(), info.Gid(), info.Size(),
				info.ModTime().Format(time.DateTime), info.Name())
		}
		return w.Flush()
	},
}

var catCmd = &cobra.Command{
	Use:   "cat DIR PATH",
	Short: "Print the content of a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vol, err := readVolume(args[0])
		if err != nil {
			return err
		}
		defer vol.Close()
		b, err := vol.ReadFile(args[1], 0)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var statCmd = &cobra.Command{
	Use:   "stat DIR PATH",
	Short: "Show the attributes of a file or directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vol, err := readVolume(args[0])
		if err != nil {
			return err
		}
		defer vol.Close()
		info, err := vol.GetAttributes(args[1])
		if err != nil {
			return err
		}
		printStat(cmd.OutOrStdout(), info)
		return nil
	},
}

func printStat(out io.Writer, info *treefs.FileInfo) {
	kind := "regular file"
	if info.IsDir() {
		kind = "directory"
	}
	fmt.Fprintf(out, "  Path: %s\n", info.Path())
	fmt.Fprintf(out, "  Size: %-10d Blocks: %-6d %s\n", info.Size(), info.Blocks(), kind)
	fmt.Fprintf(out, " Inode: %-10d Links: %d\n", info.Inode(), info.Nlink())
	fmt.Fprintf(out, "Access: (%04o/%s)  Uid: %d  Gid: %d\n", uint32(info.Mode().Perm()), info.Mode(), info.Uid(), info.Gid())
	fmt.Fprintf(out, "Access: %s\n", info.AccessTime().Format(time.RFC3339Nano))
	fmt.Fprintf(out, "Modify: %s\n", info.ModTime().Format(time.RFC3339Nano))
	fmt.Fprintf(out, "Change: %s\n", info.ChangeTime().Format(time.RFC3339Nano))
	fmt.Fprintf(out, " Birth: %s\n", info.BirthTime().Format(time.RFC3339Nano))
}

var treeCmd = &cobra.Command{
	Use:   "tree DIR [PATH]",
	Short: "Print the directory tree",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := "/"
		if len(args) > 1 {
			root = args[1]
		}
		vol, err := readVolume(args[0])
		if err != nil {
			return err
		}
		defer vol.Close()
		out := cmd.OutOrStdout()
		base := -1
		return vol.Walk(root, func(p string, info *treefs.FileInfo) error {
			depth := strings.Count(p, "/")
			if p == "/" {
				depth = 0
			}
			if base < 0 {
				base = depth
			}
			name := info.Name()
			if info.IsDir() && p != "/" {
				name += "/"
			}
			fmt.Fprintf(out, "%s%s\n", strings.Repeat("  ", depth-base), name)
			return nil
		})
	},
}

var checkCmd = &cobra.Command{
	Use:   "check DIR",
	Short: "Verify the consistency of a filesystem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vol, err := readVolume(args[0])
		if err != nil {
			return err
		}
		defer vol.Close()
		if err := vol.Check(); err != nil {
			return fmt.Errorf("filesystem in %s is inconsistent:\n%w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: clean\n", args[0])
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info DIR",
	Short: "Show the geometry and usage of a filesystem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		vol, err := readVolume(args[0])
		if err != nil {
			return err
		}
		defer vol.Close()
		usage := vol.Usage()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "volume:          %s\n", vol.UUID())
		fmt.Fprintf(out, "layout:          %s\n", vol.Layout())
		fmt.Fprintf(out, "compression:     %s\n", vol.Compression())
		fmt.Fprintf(out, "block size:      %d\n", usage.BlockSize)
		fmt.Fprintf(out, "blocks per file: %d\n", usage.BlocksPerFile)
		fmt.Fprintf(out, "blocks:          %d used, %d free, %d total\n", usage.TotalBlocks-usage.FreeBlocks, usage.FreeBlocks, usage.TotalBlocks)
		fmt.Fprintf(out, "inodes:          %d used, %d free, %d total\n", usage.TotalInodes-usage.FreeInodes, usage.FreeInodes, usage.TotalInodes)
		return nil
	},
}

func init() {
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "show attributes")
	rootCmd.AddCommand(lsCmd, catCmd, statCmd, treeCmd, checkCmd, infoCmd)
}
