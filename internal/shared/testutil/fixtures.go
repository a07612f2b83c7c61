package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// MoviesCSV is a small movies export covering the cleaning edge cases:
// a duplicate movie_id, a row without an id, blank numerics, an unparseable
// release date and a genre cell that is not a Python literal.
const MoviesCSV = "\ufeffmovie_id,movie_title,genres,production_countries,spoken_languages,original_language,overview,release_date,year_released,runtime,popularity,vote_average,vote_count,imdb_id\n" +
	"alpha,Alpha,\"['Drama', 'Comedy']\",\"['United States of America']\",\"['English']\",en,First film,2001-05-01,2001.0,100,10,7.5,200,tt001\n" +
	"beta,Beta,\"['Drama']\",[],[],fr,,1999-01-01,,120,,6.0,,tt002\n" +
	"alpha,Alpha Again,\"['Action']\",[],[],en,Duplicate,2001-05-01,2001,100,10,7.5,200,tt001\n" +
	",Nameless,[],[],[],en,,2005-01-01,2005,95,1,5.0,5,tt003\n" +
	"gamma,Gamma,[],,,,,,2010,,,,50,tt004\n" +
	"delta,Delta,\"Horror, Thriller\",[],\"['日本語']\",ja,Scary,soon,,90,4,8.0,10,tt005\n"

// RatingsCSV holds ratings with a missing movie_id, a non-numeric value,
// an out-of-range value and a movie_id absent from MoviesCSV.
const RatingsCSV = "_id,movie_id,rating_val,user_id\n" +
	"r1,alpha,8,u1\n" +
	"r2,alpha,6,u2\n" +
	"r3,beta,10,u1\n" +
	"r4,beta,abc,u3\n" +
	"r5,,7,u2\n" +
	"r6,gamma,12,u2\n" +
	"r7,omega,5,u1\n" +
	"r8,delta,4,u3\n" +
	"r9,alpha,7,u3\n"

// UsersCSV holds one user with a blank display name and blank counters
const UsersCSV = "_id,display_name,num_ratings_pages,num_reviews,username\n" +
	"p1,User One,3,10,u1\n" +
	"p2,,,x,u2\n" +
	"p3,Three,1.0,2,u3\n"

// Expected outcomes of running the pipeline over the fixtures
const (
	FixtureMoviesCleaned    = 4
	FixtureRatingsRows      = 9
	FixtureRatingsCleaned   = 7
	FixtureRatingsMerged    = 6
	FixtureRatingsUnmatched = 1
	FixtureUsersCleaned     = 3
)

// WriteFile writes content to dir/name, creating dir as needed
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("create %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteRawFixtures writes movies.csv, ratings.csv and users.csv into dataDir
func WriteRawFixtures(t testing.TB, dataDir string) {
	t.Helper()
	WriteFile(t, dataDir, "movies.csv", MoviesCSV)
	WriteFile(t, dataDir, "ratings.csv", RatingsCSV)
	WriteFile(t, dataDir, "users.csv", UsersCSV)
}
