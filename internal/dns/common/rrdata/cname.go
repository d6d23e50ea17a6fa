package rrdata

// encodeCNAME encodes a CNAME target into wire format.
func encodeCNAME(text string) ([]byte, error) {
	// text = "canonical.example.com"
	return encodeDomainName(text)
}

// decodeCNAME decodes CNAME record data into its target name.
func decodeCNAME(b []byte) (string, error) {
	return decodeDomainName(b)
}
