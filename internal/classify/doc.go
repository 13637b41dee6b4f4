// Package classify groups recordings into semantic categories. A new
// recording joins the first existing category whose embedding clears the
// similarity threshold; failing that, the engine names a new category and
// synthesizes its spoken announcement.
package classify
