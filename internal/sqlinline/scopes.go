package sqlinline

const QListStreamScopeIDs = `--sql 3e2c81ed-2f42-4d98-8239-9a54b54a97af
select id
from stream_scope
order by id asc;
`
