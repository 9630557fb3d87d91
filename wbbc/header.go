package wbbc

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/vcfgo"
	"github.com/carbocation/wbbcpanel"
)

var ErrHeaderMismatch = errors.New("VCF header does not declare the required INFO fields")

var BufferSize = 4096 * 8

// ValidateHeader reads only the header of the VCF at path and checks that
// every key is declared by an ##INFO line.
func ValidateHeader(path string, keys []string, client *storage.Client) error {
	src, err := wbbcpanel.OpenSeeker(path, client)
	if err != nil {
		return err
	}

	rc, err := wbbcpanel.MaybeDecompress(src)
	if err != nil {
		src.Close()
		return pfx.Err(err)
	}
	defer rc.Close()

	// Lazy sample parsing: sites-only files have no samples anyway
	rdr, err := vcfgo.NewReader(bufio.NewReaderSize(rc, BufferSize), true)
	if rdr == nil {
		return pfx.Err(fmt.Errorf("%s: %w", path, err))
	}
	if err != nil {
		log.Printf("%s: header has invalid features, attempting to continue: %v\n", path, err)
	}

	missing := make([]string, 0)
	for _, key := range keys {
		if _, exists := rdr.Header.Infos[key]; !exists {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s lacks %s", ErrHeaderMismatch, path, strings.Join(missing, ", "))
	}

	return nil
}
