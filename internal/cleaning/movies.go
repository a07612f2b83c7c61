package cleaning

import (
	"math"

	"filmstats/internal/dataprocessing"
	"filmstats/internal/ingest"
	"filmstats/pkg/contracts/domain"
)

var movieColumns = knownSet(
	domain.ColMovieID, domain.ColMovieTitle, domain.ColGenres, domain.ColProductionCountries,
	domain.ColSpokenLanguages, domain.ColOriginalLanguage, domain.ColOverview, domain.ColReleaseDate,
	domain.ColYearReleased, domain.ColRuntime, domain.ColPopularity, domain.ColVoteAverage,
	domain.ColVoteCount,
)

// missingKey stands in for every missing movie_id so they deduplicate together
const missingKey = "\x00"

// movieDraft holds a movie whose numeric gaps are not yet filled
type movieDraft struct {
	movie                       domain.Movie
	year                        float64
	hasYear                     bool
	hasRuntime, hasPop, hasVote bool
}

// CleanMovies deduplicates and normalises the movies export. Rows sharing a
// movie_id keep the first; rows without an id or title are dropped. Missing
// runtime and popularity take the column median, missing vote_average the
// column mean, and missing year_released is rebuilt from release_date.
func CleanMovies(table *ingest.Table) ([]domain.Movie, *Report, error) {
	if err := requireColumns(table, "movies", domain.ColMovieID, domain.ColMovieTitle); err != nil {
		return nil, nil, err
	}
	report := NewReport("Movies")
	columns := table.Columns()
	idx := ingest.IndexColumns(columns)
	records := table.Records()

	seen := make(map[string]struct{}, len(records))
	unique := make([][]string, 0, len(records))
	for _, rec := range records {
		key := idx.Get(rec, domain.ColMovieID)
		if dataprocessing.IsMissing(key) {
			key = missingKey
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, rec)
	}
	report.Add("Removed %d duplicate movies based on movie_id.", len(records)-len(unique))

	// The note sums the per-column gaps, so a row missing both counts twice
	var missingIDs, missingTitles int
	drafts := make([]movieDraft, 0, len(unique))
	for _, rec := range unique {
		id := idx.Get(rec, domain.ColMovieID)
		title := idx.Get(rec, domain.ColMovieTitle)
		noID, noTitle := dataprocessing.IsMissing(id), dataprocessing.IsMissing(title)
		if noID {
			missingIDs++
		}
		if noTitle {
			missingTitles++
		}
		if noID || noTitle {
			continue
		}
		drafts = append(drafts, draftMovie(idx, columns, rec, id, title))
	}
	if missingIDs > 0 || missingTitles > 0 {
		report.Add("Dropped %d movies missing identifiers or titles.", missingIDs+missingTitles)
	}

	fillNumericGaps(drafts)

	backfilled := 0
	movies := make([]domain.Movie, len(drafts))
	for i := range drafts {
		d := &drafts[i]
		if !d.hasYear && d.movie.ReleaseDate != nil {
			d.year = float64(d.movie.ReleaseDate.Year())
			d.hasYear = true
			backfilled++
		}
		if d.hasYear {
			d.movie.YearReleased = domain.IntPtr(int(math.RoundToEven(d.year)))
		}
		movies[i] = d.movie
	}
	if backfilled > 0 {
		report.Add("Backfilled %d missing year_released values from release_date.", backfilled)
	}

	report.Add("Movies cleaned: %d rows remaining.", len(movies))
	return movies, report, nil
}

func draftMovie(idx ingest.ColumnIndex, columns []string, rec []string, id, title string) movieDraft {
	d := movieDraft{
		movie: domain.Movie{
			ID:                  id,
			Title:               title,
			Genres:              dataprocessing.ParseStringList(idx.Get(rec, domain.ColGenres)),
			ProductionCountries: dataprocessing.ParseStringList(idx.Get(rec, domain.ColProductionCountries)),
			SpokenLanguages:     dataprocessing.ParseStringList(idx.Get(rec, domain.ColSpokenLanguages)),
			OriginalLanguage:    idx.Get(rec, domain.ColOriginalLanguage),
			Overview:            blankIfMissing(idx.Get(rec, domain.ColOverview)),
			ReleaseDate:         dataprocessing.ParseDate(idx.Get(rec, domain.ColReleaseDate)),
			VoteCount:           dataprocessing.ToIntDefault(idx.Get(rec, domain.ColVoteCount), 0),
			Extra:               extras(columns, movieColumns, rec),
		},
	}
	if dataprocessing.IsMissing(d.movie.OriginalLanguage) {
		d.movie.OriginalLanguage = domain.UnknownLanguage
	}

	d.year, d.hasYear = dataprocessing.ToFloat(idx.Get(rec, domain.ColYearReleased))
	if math.IsInf(d.year, 0) {
		d.hasYear = false
	}
	d.movie.Runtime, d.hasRuntime = dataprocessing.ToFloat(idx.Get(rec, domain.ColRuntime))
	d.movie.Popularity, d.hasPop = dataprocessing.ToFloat(idx.Get(rec, domain.ColPopularity))
	d.movie.VoteAverage, d.hasVote = dataprocessing.ToFloat(idx.Get(rec, domain.ColVoteAverage))
	return d
}

// fillNumericGaps fills runtime and popularity with the median and
// vote_average with the mean of the present values. A column with no values
// stays at zero.
func fillNumericGaps(drafts []movieDraft) {
	var runtimes, pops, votes []float64
	for _, d := range drafts {
		if d.hasRuntime {
			runtimes = append(runtimes, d.movie.Runtime)
		}
		if d.hasPop {
			pops = append(pops, d.movie.Popularity)
		}
		if d.hasVote {
			votes = append(votes, d.movie.VoteAverage)
		}
	}

	runtimeFill, popFill, voteFill := 0.0, 0.0, 0.0
	if len(runtimes) > 0 {
		runtimeFill = dataprocessing.Median(runtimes)
	}
	if len(pops) > 0 {
		popFill = dataprocessing.Median(pops)
	}
	if len(votes) > 0 {
		voteFill = dataprocessing.Mean(votes)
	}

	for i := range drafts {
		d := &drafts[i]
		if !d.hasRuntime {
			d.movie.Runtime = runtimeFill
		}
		if !d.hasPop {
			d.movie.Popularity = popFill
		}
		if !d.hasVote {
			d.movie.VoteAverage = voteFill
		}
	}
}
