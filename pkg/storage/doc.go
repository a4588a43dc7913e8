// Package storage writes downloaded media into the output tree.
//
// Every file is written to a hidden ".part" sibling first and renamed into
// place, so an interrupted download never leaves a truncated file under the
// final name. Manager also answers whether a target already exists, which
// lets reruns skip finished items.
package storage
