// Package models defines server-side data models persisted in the database.
// Foreign references are plain identifiers; author and uploader names are
// filled by read-time joins and are never written back.
package models
