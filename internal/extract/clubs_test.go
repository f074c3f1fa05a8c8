package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/athledata/ffa-scraper/internal/document"
)

const clubsFixture = `
<html><body>
<table><tbody class="text-blue-primary">
<tr>
  <td>1</td><td></td><td><a href="#">EA SAINT-QUENTIN **</a></td><td>077001</td>
  <td>77</td><td>I-F</td><td>actif</td>
</tr>
<tr>
  <td>2</td><td></td><td><a href="#">US MELUN</a></td><td>077012</td>
  <td>77</td><td>I-F</td><td>actif</td>
</tr>
<tr><td colspan="7">detail row, ignored</td></tr>
<tr>
  <td>3</td><td></td><td>no anchor but still seven cells</td><td></td>
  <td>77</td><td>I-F</td><td>actif</td>
</tr>
</tbody></table>
</body></html>`

func TestClubPageExtractsRows(t *testing.T) {
	t.Parallel()

	doc, err := document.Parse([]byte(clubsFixture))
	require.NoError(t, err)

	clubs := ClubPage(doc)
	require.Len(t, clubs, 2)
	require.Equal(t, "077001", clubs[0].ExternalID)
	require.Equal(t, "EA SAINT-QUENTIN", clubs[0].Name, "trailing asterisks are stripped")
	require.Equal(t, "077012", clubs[1].ExternalID)
	require.Equal(t, "US MELUN", clubs[1].Name)
}

func TestClubPageEmptyDocument(t *testing.T) {
	t.Parallel()

	doc, err := document.Parse([]byte("<html><body></body></html>"))
	require.NoError(t, err)
	require.Empty(t, ClubPage(doc))
	require.Empty(t, ClubPage(nil))
}
