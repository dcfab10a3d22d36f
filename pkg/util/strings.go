package util

import "strings"

func RemoveDuplicateStrings(strings []string, ignoreList []string) []string {
	presentStrings := make(map[string]bool)
	var list []string

	for _, ignoreString := range ignoreList {
		presentStrings[ignoreString] = true
	}

	for _, item := range strings {
		if _, value := presentStrings[item]; !value && item != "" {
			presentStrings[item] = true
			list = append(list, item)
		}
	}
	return list
}

// NormaliseName lower-cases and collapses whitespace so scraped names can be compared
func NormaliseName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
