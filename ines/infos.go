package ines

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// PrintInfos writes a human readable description of the rom header.
func (rom *Rom) PrintInfos(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "mapper:\t%d\n", rom.Mapper())
	fmt.Fprintf(tw, "PRG ROM:\t%d x 16KB\n", rom.PRG.Len())
	fmt.Fprintf(tw, "CHR ROM:\t%d x 4KB\n", rom.CHR.Len())
	fmt.Fprintf(tw, "mirroring:\t%s\n", rom.Mirroring())
	fmt.Fprintf(tw, "battery:\t%t\n", rom.HasPersistent())
	fmt.Fprintf(tw, "trainer:\t%t\n", rom.HasTrainer())
	fmt.Fprintf(tw, "legacy header:\t%t\n", rom.IsLegacy())
}
