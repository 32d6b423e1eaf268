package tracker

// Diff returns the entries of remote that need re-processing: names
// absent from cached, or present with a different canonical URL.
// Equality is exact-string on the URL. Entries removed upstream are not
// reported; they disappear when the store is overwritten with remote.
func Diff(remote, cached Catalog) Catalog {
	changed := Catalog{}
	for artist, url := range remote {
		if cachedURL, ok := cached[artist]; !ok || cachedURL != url {
			changed[artist] = url
		}
	}
	return changed
}
