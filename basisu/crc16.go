package basisu

// crc16 is the CRC used by .basis headers and slices: CCITT polynomial 0x1021, processed
// MSB first with the running value inverted on entry and exit.
func crc16(data []byte, crc uint16) uint16 {
	crc = ^crc
	for _, b := range data {
		q := uint16(b) ^ (crc >> 8)
		k := (q >> 4) ^ q
		crc = (((crc << 8) ^ k) ^ (k << 5)) ^ (k << 12)
	}
	return ^crc
}
