package magnet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHashMD5(t *testing.T) {
	h, err := ParseHash("urn:md5:c12fe1c06bba254a9dc9f519b335aa7c")
	require.NoError(t, err)
	assert.Equal(t, HashMD5, h.Kind)
	assert.Equal(t, [16]byte{
		193, 47, 225, 192, 107, 186, 37, 74, 157, 201, 245, 25, 179, 53, 170, 124,
	}, h.MD5)
}

func TestParseHashBTIHHex(t *testing.T) {
	h, err := ParseHash("urn:btih:209c8226b299b308beaf2b9cd3fb49212dbd13ec")
	require.NoError(t, err)
	assert.Equal(t, HashBTIH, h.Kind)
	assert.Equal(t, [20]byte{
		32, 156, 130, 38, 178, 153, 179, 8, 190, 175, 43, 156, 211, 251, 73, 33, 45, 189, 19, 236,
	}, h.BTIH)
}

func TestParseHashUnknownScheme(t *testing.T) {
	_, err := ParseHash("urn:sha256:deadbeef")
	assert.Equal(t, ErrUnknownHashFunction, err)
}

func TestParseFilesRejectsMissingScheme(t *testing.T) {
	_, err := ParseFiles("notamagnet:?xt=urn:md5:aa")
	assert.Equal(t, ErrInvalidURIScheme, err)
}

func TestParseFilesRejectsMissingQuestionMark(t *testing.T) {
	_, err := ParseFiles("magnet:xt=urn:md5:aa")
	assert.Equal(t, ErrInvalidStartCharacter, err)
}

func TestParseFilesPercentAndPlainEscapeEquivalence(t *testing.T) {
	plain, err := ParseFiles("magnet:?xt=urn:md5:c12fe1c06bba254a9dc9f519b335aa7c")
	require.NoError(t, err)
	escaped, err := ParseFiles("magnet:?xt=urn%3amd5%3Ac12fe1c06bba254a9dc9f519b335aa7c")
	require.NoError(t, err)
	assert.Equal(t, plain, escaped)
}

func TestParseFilesSingleFileWithDisplayName(t *testing.T) {
	files, err := ParseFiles("magnet:?xt=urn:btih:209c8226b299b308beaf2b9cd3fb49212dbd13ec&dn=some+file.iso")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, HashBTIH, files[0].Hash.Kind)
	assert.Equal(t, "some file.iso", files[0].DisplayName)
}

func TestParseFilesMultiFileKeyedByIndex(t *testing.T) {
	uri := "magnet:?xt.1=urn:md5:c12fe1c06bba254a9dc9f519b335aa7c&dn.1=a.txt" +
		"&xt.2=urn:btih:209c8226b299b308beaf2b9cd3fb49212dbd13ec&dn.2=b.iso"
	files, err := ParseFiles(uri)
	require.NoError(t, err)
	require.Len(t, files, 2)

	byName := map[string]File{}
	for _, f := range files {
		byName[f.DisplayName] = f
	}
	require.Contains(t, byName, "a.txt")
	require.Contains(t, byName, "b.iso")
	assert.Equal(t, HashMD5, byName["a.txt"].Hash.Kind)
	assert.Equal(t, HashBTIH, byName["b.iso"].Hash.Kind)
}

func TestParseFilesSkipsPairWithoutEquals(t *testing.T) {
	files, err := ParseFiles("magnet:?xt=urn:md5:c12fe1c06bba254a9dc9f519b335aa7c&garbage")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, HashMD5, files[0].Hash.Kind)
}

func TestDecodeQueryValueNoEscapesNeeded(t *testing.T) {
	v, err := decodeQueryValue("ABCD")
	require.NoError(t, err)
	assert.Equal(t, "ABCD", v)
}

func TestDecodeQueryValuePercentEscape(t *testing.T) {
	v, err := decodeQueryValue("%41CD")
	require.NoError(t, err)
	assert.Equal(t, "ACD", v)
}

func TestDecodeQueryValueRejectsReservedChars(t *testing.T) {
	tests := []string{"sad#asd", "asd&asd", "asd?asd"}
	for _, in := range tests {
		_, err := decodeQueryValue(in)
		assert.Equal(t, ErrInvalidUseOfReservedChar, err)
	}
}

func TestDecodeQueryValueRejectsBareTrailingPercent(t *testing.T) {
	_, err := decodeQueryValue("%%")
	assert.Equal(t, ErrInvalidUseOfReservedChar, err)
}

func TestDecodeQueryValuePlusBecomesSpace(t *testing.T) {
	v, err := decodeQueryValue("a+file+name")
	require.NoError(t, err)
	assert.Equal(t, "a file name", v)
}
