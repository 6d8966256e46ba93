package catalog

import "fmt"

// mediaSubquery defines the common GraphQL selection set for media records.
var mediaSubquery = `
id
idMal
title {
	romaji
	english
	native
}
description(asHtml: false)
coverImage {
	extraLarge
	large
	medium
	color
}
bannerImage
genres
synonyms
status
averageScore
episodes
siteUrl
startDate {
	year
	month
	day
}
`

// pageSubquery wraps the media selection in a paged envelope.
var pageSubquery = fmt.Sprintf(`
pageInfo {
	currentPage
	hasNextPage
}
media (%%s, type: ANIME) {
	%s
}
`, mediaSubquery)

// searchQuery retrieves a page of media matching a free-text query.
var searchQuery = fmt.Sprintf(`
query ($query: String, $page: Int, $perPage: Int) {
	Page (page: $page, perPage: $perPage) {
		%s
	}
}
`, fmt.Sprintf(pageSubquery, "search: $query"))

// trendingQuery retrieves a page of currently trending media.
var trendingQuery = fmt.Sprintf(`
query ($page: Int, $perPage: Int) {
	Page (page: $page, perPage: $perPage) {
		%s
	}
}
`, fmt.Sprintf(pageSubquery, "sort: TRENDING_DESC"))

// byIDQuery retrieves one media record by its canonical id.
var byIDQuery = fmt.Sprintf(`
query ($id: Int) {
	Media (id: $id, type: ANIME) {
		%s
	}
}
`, mediaSubquery)
