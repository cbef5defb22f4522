package models

import "time"

// AuctionBatch is one ingested results publication. The content hash is the
// dedup key and is unique across all batches.
type AuctionBatch struct {
	ID                   uint              `gorm:"primaryKey" json:"id"`
	Date                 time.Time         `gorm:"type:date;not null;index" json:"date"`
	NumberOfParticipants int               `gorm:"type:int;not null;check:chk_batch_participants,number_of_participants >= 0" json:"number_of_participants"`
	ContentHash          string            `gorm:"column:md5_hash;type:varchar(32);not null;uniqueIndex" json:"md5_hash"`
	Auctions             []AuctionLineItem `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"auctions"`
}

// AuctionLineItem is one region/technology row of a batch.
type AuctionLineItem struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	Region          string  `gorm:"type:text;not null" json:"region"`
	Technology      string  `gorm:"type:text;not null" json:"technology"`
	VolumeAuctioned int     `gorm:"type:int;not null;check:chk_item_volume_auctioned,volume_auctioned >= 0" json:"volume_auctioned"`
	VolumeSold      int     `gorm:"type:int;not null;check:chk_item_volume_sold,volume_sold >= 0" json:"volume_sold"`
	AveragePrice    float64 `gorm:"type:double precision;not null;check:chk_item_average_price,average_price >= 0" json:"average_price"`
	NumberOfWinners int     `gorm:"type:int;not null;check:chk_item_number_of_winners,number_of_winners >= 0" json:"number_of_winners"`
	BatchID         uint    `gorm:"not null;index" json:"auction_results"`
}
