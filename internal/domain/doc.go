// Package domain models the Montréal public tree inventory.
//
// # Data Source
//
// Tree records originate from the Ville de Montréal open-data portal
// ("Arbres publics sur le territoire de la Ville"), published as a set of
// CSV extracts (arbres-part-1.csv … arbres-part-7.csv) with one row per
// planted tree. Column headers are a mix of French and English.
//
// # Source Data Conventions
//
// Planting date ("Date_Plantation" column):
//
//	ISO date, usually with a zero time suffix: "2010-05-14T00:00:00".
//	Some extracts carry a bare date ("2010-05-14") or just a year
//	("2010"). Only the year is meaningful downstream. Years outside
//	[1850, 2025] are data-entry errors and the row is dropped, never
//	clamped. The literal year 205 is a known truncated-millennium
//	artifact in the source extracts; it is rejected under its own
//	reason so operators can track it separately from ordinary range
//	failures. A missing planting date drops the row: the timeline
//	cannot place an undated tree.
//
// Coordinates ("Latitude" / "Longitude" columns):
//
//	WGS-84 decimal degrees. The portal uses 0 (and occasionally values
//	near 0) as a "no location" sentinel, so any coordinate with an
//	absolute value below 10 rejects the row. Surviving coordinates must
//	fall inside a plausibility box around greater Montréal:
//	latitude 44.5–47.0, longitude −75.5 to −72.0.
//
// Species ("Essence_en", with "Essence_latin" / "Essence_fr" variants):
//
//	Free text. An empty English name becomes "Unknown"; the Latin and
//	French names ride along as passthrough properties.
//
// All other columns (borough, street, location code, trunk diameter, …)
// pass through unchanged into the record's Extra map.
//
// # ID Generation
//
// The extracts carry no stable row identifier, so IDs are deterministic
// SHA-256 hashes of species|year|lat|lon. Re-running the normalizer on
// identical inputs reproduces identical IDs, and genuinely duplicated
// rows collapse to one record (later copies are rejected as
// duplicate_id). A source column can be mapped as the ID instead, in
// which case it is used verbatim. See [SynthesizeID].
package domain
