package dist

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/silverjam/pyopack/pkg/htmlutil"
	"github.com/silverjam/pyopack/pkg/python"
	"github.com/silverjam/pyopack/pkg/python/pep440"
)

// A Client fetches distribution archives from a PEP 503 "simple"
// package index.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	// Python, if set, filters out files whose data-requires-python
	// specifier this interpreter version does not satisfy.
	Python *pep440.Version
}

const PyPIBaseURL = "https://pypi.org/simple/"

func (c *Client) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = PyPIBaseURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "github.com/silverjam/pyopack/pkg/packaging/dist"
	}
}

type HTTPError struct {
	Status     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}

func (c Client) get(ctx context.Context, requestURL string) (_ *url.URL, _ []byte, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("GET %q => %w", requestURL, err)
		}
	}()
	c.fillDefaults()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, nil, err
	}
	if err := resp.Body.Close(); err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, &HTTPError{Status: resp.Status, StatusCode: resp.StatusCode}
	}

	// A "#alg=hexdigest" fragment on the link is a checksum to
	// verify; the algorithm names are hashlib's.
	if u, err := url.Parse(requestURL); err == nil && u.Fragment != "" {
		if keyvals, err := url.ParseQuery(u.Fragment); err == nil {
			for alg, vals := range keyvals {
				newHash, known := python.HashlibAlgorithmsGuaranteed[alg]
				if !known {
					continue
				}
				hasher := newHash()
				_, _ = hasher.Write(content)
				sum := hex.EncodeToString(hasher.Sum(nil))
				for _, val := range vals {
					if sum != val {
						return nil, nil, fmt.Errorf("checksum mismatch: %s: expected=%s actual=%s",
							alg, val, sum)
					}
				}
			}
		}
	}

	return resp.Request.URL, content, nil
}

// A Link is an <a> element from an index page.
type Link struct {
	Text      string
	HRef      string
	DataAttrs map[string]string
}

func (c Client) getHTML5Index(ctx context.Context, requestURL string) ([]Link, error) {
	location, content, err := c.get(ctx, requestURL)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var links []Link
	if err := htmlutil.VisitHTML(doc, nil, func(node *html.Node) error {
		if node.Type != html.ElementNode || node.Data != "a" {
			return nil
		}
		link := Link{
			DataAttrs: make(map[string]string),
		}
		for _, attr := range node.Attr {
			switch {
			case attr.Namespace == "" && attr.Key == "href":
				href, err := location.Parse(attr.Val)
				if err != nil {
					return err
				}
				link.HRef = href.String()
			case attr.Namespace == "" && strings.HasPrefix(attr.Key, "data-"):
				link.DataAttrs[attr.Key] = attr.Val
			}
		}
		var text strings.Builder
		_ = htmlutil.VisitHTML(node, nil, func(child *html.Node) error {
			if child.Type == html.TextNode {
				text.WriteString(child.Data)
			}
			return nil
		})
		link.Text = text.String()
		links = append(links, link)
		return nil
	}); err != nil {
		return nil, err
	}
	return links, nil
}

type FileLink struct {
	client Client
	Link
}

var pkgnameNormalizeRE = regexp.MustCompile("[-_.]+")

func normalize(str string) string {
	return strings.ToLower(pkgnameNormalizeRE.ReplaceAllLiteralString(str, "-"))
}

// ListPackageFiles lists the downloadable files the index has for
// pkgname, filtered by the client's Python version when one is set.
func (c Client) ListPackageFiles(ctx context.Context, pkgname string) ([]FileLink, error) {
	// "the only valid characters in a name are the ASCII alphabet,
	// ASCII numbers, `.`, `-`, and `_`."
	for _, char := range pkgname {
		if !(('a' <= char && char <= 'z') ||
			('A' <= char && char <= 'Z') ||
			('0' <= char && char <= '9') ||
			char == '.' ||
			char == '-' ||
			char == '_') {
			return nil, fmt.Errorf("illegal character in pkgname: %q: %s",
				pkgname, strconv.QuoteRuneToASCII(char))
		}
	}

	c.fillDefaults()
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path.Join(u.Path, normalize(pkgname))
	rawLinks, err := c.getHTML5Index(ctx, u.String())
	if err != nil {
		return nil, err
	}
	links := make([]FileLink, 0, len(rawLinks))
	for _, link := range rawLinks {
		if c.Python != nil {
			if reqPy := link.DataAttrs["data-requires-python"]; reqPy != "" {
				spec, err := pep440.ParseSpecifier(reqPy)
				if err == nil && !spec.Match(*c.Python) {
					continue
				}
			}
		}
		links = append(links, FileLink{
			client: c,
			Link:   link,
		})
	}
	return links, nil
}

func (l FileLink) Get(ctx context.Context) ([]byte, error) {
	_, content, err := l.client.get(ctx, l.HRef)
	return content, err
}

var ErrNoSignature = errors.New("no signature")

// GetSignature fetches the detached GPG signature for the file, when
// the index says one exists.
func (l FileLink) GetSignature(ctx context.Context) ([]byte, error) {
	switch l.DataAttrs["data-gpg-sig"] {
	case "false":
		return nil, ErrNoSignature
	case "true":
		_, content, err := l.client.get(ctx, l.HRef+".asc")
		return content, err
	default:
		_, content, err := l.client.get(ctx, l.HRef+".asc")
		var httpErr *HTTPError
		if err != nil && errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			err = ErrNoSignature
		}
		return content, err
	}
}
