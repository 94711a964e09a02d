package snapshot

import (
	"fmt"

	"github.com/go-faster/jx"
)

func (c *Cartridge) MarshalJSON() ([]byte, error) {
	var e jx.Encoder
	e.SetIdent(2)
	c.Encode(&e)
	return e.Bytes(), nil
}

func (c *Cartridge) UnmarshalJSON(data []byte) error {
	return c.Decode(jx.DecodeBytes(data))
}

// Encode writes the cartridge state as a JSON object.
func (c *Cartridge) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.Field("version", func(e *jx.Encoder) { e.Int(c.Version) })
	e.Field("mapper", func(e *jx.Encoder) { e.UInt16(c.Mapper) })
	e.Field("mirroring", func(e *jx.Encoder) { e.UInt8(c.Mirroring) })
	e.Field("input", func(e *jx.Encoder) {
		e.ObjStart()
		e.Field("strobe", func(e *jx.Encoder) { encodeBytes(e, c.Input.Strobe[:]) })
		e.Field("last_write", func(e *jx.Encoder) { e.UInt8(c.Input.LastWrite) })
		e.ObjEnd()
	})
	if c.WRAM != nil {
		e.Field("wram", func(e *jx.Encoder) { e.Base64(c.WRAM) })
	}
	if c.CHRRAM != nil {
		e.Field("chr_ram", func(e *jx.Encoder) { e.Base64(c.CHRRAM) })
	}
	e.Field("latch", func(e *jx.Encoder) { e.UInt8(c.Latch) })
	e.Field("nina", func(e *jx.Encoder) { encodeBytes(e, c.NINA[:]) })
	if c.MMC1 != nil {
		e.Field("mmc1", c.MMC1.encode)
	}
	if c.MMC3 != nil {
		e.Field("mmc3", c.MMC3.encode)
	}
	if c.MMC5 != nil {
		e.Field("mmc5", c.MMC5.encode)
	}
	e.ObjEnd()
}

// Decode reads a cartridge state encoded by Encode. Unknown fields are
// skipped.
func (c *Cartridge) Decode(d *jx.Decoder) error {
	*c = Cartridge{}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "version":
			c.Version, err = d.Int()
		case "mapper":
			c.Mapper, err = d.UInt16()
		case "mirroring":
			c.Mirroring, err = d.UInt8()
		case "input":
			err = d.Obj(func(d *jx.Decoder, key string) error {
				switch key {
				case "strobe":
					return decodeBytes(d, c.Input.Strobe[:])
				case "last_write":
					var err error
					c.Input.LastWrite, err = d.UInt8()
					return err
				}
				return d.Skip()
			})
		case "wram":
			c.WRAM, err = d.Base64()
		case "chr_ram":
			c.CHRRAM, err = d.Base64()
		case "latch":
			c.Latch, err = d.UInt8()
		case "nina":
			err = decodeBytes(d, c.NINA[:])
		case "mmc1":
			c.MMC1 = new(MMC1)
			err = c.MMC1.decode(d)
		case "mmc3":
			c.MMC3 = new(MMC3)
			err = c.MMC3.decode(d)
		case "mmc5":
			c.MMC5 = new(MMC5)
			err = c.MMC5.decode(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("decode cartridge state: %w", err)
	}
	if c.Version > Version {
		return fmt.Errorf("decode cartridge state: unsupported version %d", c.Version)
	}
	return nil
}

func (m *MMC1) encode(e *jx.Encoder) {
	e.ObjStart()
	e.Field("shift", func(e *jx.Encoder) { e.UInt8(m.Shift) })
	e.Field("count", func(e *jx.Encoder) { e.UInt8(m.Count) })
	e.Field("control", func(e *jx.Encoder) { e.UInt8(m.Control) })
	e.Field("chr0", func(e *jx.Encoder) { e.UInt8(m.CHR0) })
	e.Field("chr1", func(e *jx.Encoder) { e.UInt8(m.CHR1) })
	e.Field("prg", func(e *jx.Encoder) { e.UInt8(m.PRG) })
	e.ObjEnd()
}

func (m *MMC1) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "shift":
			m.Shift, err = d.UInt8()
		case "count":
			m.Count, err = d.UInt8()
		case "control":
			m.Control, err = d.UInt8()
		case "chr0":
			m.CHR0, err = d.UInt8()
		case "chr1":
			m.CHR1, err = d.UInt8()
		case "prg":
			m.PRG, err = d.UInt8()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (m *MMC3) encode(e *jx.Encoder) {
	e.ObjStart()
	e.Field("command", func(e *jx.Encoder) { e.UInt8(m.Command) })
	e.Field("prg_mode", func(e *jx.Encoder) { e.UInt8(m.PRGMode) })
	e.Field("chr_mode", func(e *jx.Encoder) { e.UInt8(m.CHRMode) })
	e.Field("regs", func(e *jx.Encoder) { encodeBytes(e, m.Regs[:]) })
	e.Field("prg_ram_protect", func(e *jx.Encoder) { e.UInt8(m.PRGRAMProtect) })
	e.Field("irq_counter", func(e *jx.Encoder) { e.Int(m.IRQCounter) })
	e.Field("irq_latch", func(e *jx.Encoder) { e.UInt8(m.IRQLatch) })
	e.Field("irq_enable", func(e *jx.Encoder) { e.Bool(m.IRQEnable) })
	e.ObjEnd()
}

func (m *MMC3) decode(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "command":
			m.Command, err = d.UInt8()
		case "prg_mode":
			m.PRGMode, err = d.UInt8()
		case "chr_mode":
			m.CHRMode, err = d.UInt8()
		case "regs":
			err = decodeBytes(d, m.Regs[:])
		case "prg_ram_protect":
			m.PRGRAMProtect, err = d.UInt8()
		case "irq_counter":
			m.IRQCounter, err = d.Int()
		case "irq_latch":
			m.IRQLatch, err = d.UInt8()
		case "irq_enable":
			m.IRQEnable, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	})
}

func (m *MMC5) encode(e *jx.Encoder) {
	u8 := func(name string, v uint8) {
		e.Field(name, func(e *jx.Encoder) { e.UInt8(v) })
	}

	e.ObjStart()
	u8("prg_size", m.PRGSize)
	u8("chr_size", m.CHRSize)
	u8("sram_we_a", m.SRAMWEA)
	u8("sram_we_b", m.SRAMWEB)
	u8("gfx_mode", m.GfxMode)
	u8("nt_mode", m.NTMode)
	u8("fill_tile", m.FillTile)
	u8("fill_attr", m.FillAttr)
	u8("prg_ram_bank", m.PRGRAMBank)
	e.Field("prg", func(e *jx.Encoder) { encodeBytes(e, m.PRG[:]) })
	u8("chr_set", m.CHRSet)
	e.Field("chr_a", func(e *jx.Encoder) { encodeBytes(e, m.CHRA[:]) })
	e.Field("chr_b", func(e *jx.Encoder) { encodeBytes(e, m.CHRB[:]) })
	u8("split_ctrl", m.SplitCtrl)
	u8("split_scroll", m.SplitScroll)
	u8("split_page", m.SplitPage)
	u8("irq_line", m.IRQLine)
	u8("irq_enable", m.IRQEnable)
	u8("irq_status", m.IRQStatus)
	e.Field("scanline", func(e *jx.Encoder) { e.Int(m.Scanline) })
	u8("mult_a", m.MultA)
	u8("mult_b", m.MultB)
	e.Field("exram", func(e *jx.Encoder) { e.Base64(m.ExRAM) })
	e.ObjEnd()
}

func (m *MMC5) decode(d *jx.Decoder) error {
	regs := map[string]*uint8{
		"prg_size":     &m.PRGSize,
		"chr_size":     &m.CHRSize,
		"sram_we_a":    &m.SRAMWEA,
		"sram_we_b":    &m.SRAMWEB,
		"gfx_mode":     &m.GfxMode,
		"nt_mode":      &m.NTMode,
		"fill_tile":    &m.FillTile,
		"fill_attr":    &m.FillAttr,
		"prg_ram_bank": &m.PRGRAMBank,
		"chr_set":      &m.CHRSet,
		"split_ctrl":   &m.SplitCtrl,
		"split_scroll": &m.SplitScroll,
		"split_page":   &m.SplitPage,
		"irq_line":     &m.IRQLine,
		"irq_enable":   &m.IRQEnable,
		"irq_status":   &m.IRQStatus,
		"mult_a":       &m.MultA,
		"mult_b":       &m.MultB,
	}

	return d.Obj(func(d *jx.Decoder, key string) error {
		if reg, ok := regs[key]; ok {
			v, err := d.UInt8()
			*reg = v
			return err
		}

		var err error
		switch key {
		case "prg":
			err = decodeBytes(d, m.PRG[:])
		case "chr_a":
			err = decodeBytes(d, m.CHRA[:])
		case "chr_b":
			err = decodeBytes(d, m.CHRB[:])
		case "scanline":
			m.Scanline, err = d.Int()
		case "exram":
			m.ExRAM, err = d.Base64()
		default:
			err = d.Skip()
		}
		return err
	})
}

// encodeBytes writes small register files as arrays of numbers.
func encodeBytes(e *jx.Encoder, b []uint8) {
	e.ArrStart()
	for _, v := range b {
		e.UInt8(v)
	}
	e.ArrEnd()
}

func decodeBytes(d *jx.Decoder, dst []uint8) error {
	i := 0
	return d.Arr(func(d *jx.Decoder) error {
		v, err := d.UInt8()
		if err != nil {
			return err
		}
		if i >= len(dst) {
			return fmt.Errorf("too many elements, want %d", len(dst))
		}
		dst[i] = v
		i++
		return nil
	})
}
