// Command mkbossfs creates a fresh BOSS disk image and formats it with
// fs/simplefs.Format, mirroring the role original_source's "format" shell
// command plays, but as a standalone host tool that needs no kernel boot
// (SPEC_FULL.md §3).
package main

import (
	"fmt"
	"os"

	"github.com/CezarPP/BOSS/blockdev"
	"github.com/CezarPP/BOSS/fs/simplefs"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "mkbossfs",
		Usage: "create and format a BOSS disk image",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "path to the disk image to create",
				Required: true,
			},
			&cli.Uint64Flag{
				Name:    "size",
				Aliases: []string{"s"},
				Usage:   "disk image size in bytes (rounded down to a whole number of 512-byte blocks)",
				Value:   64 * 1024 * 1024,
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "mkbossfs:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	path := c.String("out")
	sizeBytes := c.Uint64("size")
	blocks := uint32(sizeBytes / blockdev.BlockSize)
	if blocks == 0 {
		return fmt.Errorf("size %s is smaller than one block (%d bytes)", humanize.Bytes(sizeBytes), blockdev.BlockSize)
	}

	dev, err := blockdev.CreateFile(path, blocks)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := simplefs.Format(dev); err != nil {
		return fmt.Errorf("format: %w", err)
	}
	if err := dev.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	super := simplefs.NewSuperBlock(blocks)
	fmt.Printf("created %s (%s, magic %#x)\n", path, humanize.Bytes(uint64(blocks)*blockdev.BlockSize), super.MagicNumber)
	fmt.Printf("  blocks=%d inodeBlocks=%d inodes=%d dirBlocks=%d dataStart=%d dataEnd=%d dirStart=%d\n",
		super.Blocks, super.InodeBlocks, super.Inodes, super.DirBlocks, super.DataStart, super.DataEnd, super.DirStart)
	return nil
}
