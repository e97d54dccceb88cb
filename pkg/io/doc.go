// Package io reads and writes built target series.
//
// # JSON Format
//
// A series file holds the targets of one build together with the category
// registry and the series types:
//
//	{
//	  "targets": [
//	    {
//	      "id": "sales",
//	      "id_org": "Sales",
//	      "values": [
//	        {"x": 0, "value": 30, "id": "sales", "index": 0},
//	        {"x": 1, "value": null, "id": "sales", "index": 1}
//	      ]
//	    }
//	  ],
//	  "categories": ["Mon", "Tue"],
//	  "types": {"sales": "bar"}
//	}
//
// x is a number, an RFC 3339 time or null. value is a number, null, an
// array, or a range object with high, low and an optional mid.
//
// Use [WriteJSON] and [ReadJSON] with any stream, or [ExportJSON] and
// [ImportJSON] with a file path. [ReadJSON] validates ids and repairs
// missing point ids and indexes, so hand-written files round-trip.
//
// # CSV Export
//
// [WriteCSV] writes the same targets in long form, one row per point:
//
//	id,id_org,index,x,value
//	sales,Sales,0,0,30
//	sales,Sales,1,1,
//
// Null cells are empty. CSV output is for spreadsheets and is not read back.
package io
